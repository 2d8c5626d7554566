// Package services defines the shared error taxonomy for pipeline
// components and helpers for wrapping failures with operation context.
package services
