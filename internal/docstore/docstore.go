// Package docstore persists whole named documents. A document is read and
// replaced as a unit; there are no partial updates. Backends differ only in
// where the bytes live.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Read when no document with the given name exists.
var ErrNotFound = errors.New("document not found")

// Store reads and replaces named documents.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read returns the stored bytes, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)
	// Write replaces the document with body.
	Write(ctx context.Context, name string, body []byte) error
	// Backend names the storage engine, for logs and health output.
	Backend() string
	Close() error
}

const maxNameLength = 255

func validateName(name string) error {
	if name == "" {
		return errors.New("document name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("document name too long (max %d characters)", maxNameLength)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
