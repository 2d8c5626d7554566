// Package contentcache stores downloaded remote items on disk, keyed by
// item ID, so repeat runs can skip re-downloading. Entries expire by
// age: expiry is evaluated lazily on lookup, plus one explicit sweep at
// process start.
//
// The cache is strictly an optimization. Reads fail open (any error is
// a miss) and writes fail silent, so a broken cache directory can never
// break a mix run.
package contentcache
