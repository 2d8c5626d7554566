// Package source normalizes heterogeneous inputs (remote references and
// local directories) into read-only resolved file lists with per-file
// metadata, the contract the rotation scheduler and combiner consume.
package source
