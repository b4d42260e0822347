// Package idgen produces the correlation ids attached to log lines.
package idgen

import "github.com/google/uuid"

// Generator returns a new id. Implementations must be safe for concurrent use.
type Generator interface {
	NewID() string
}

// Version selects a UUID variant.
type Version uint8

const (
	V4 Version = 4
	V7 Version = 7
)

// Default backs the request id middlewares. V7 ids sort by creation time,
// so log lines from one process order the same way their ids do.
var Default = New(V7)

// New returns a Generator for the requested UUID version.
func New(v Version) Generator {
	if v == V7 {
		return v7Gen{retries: 1}
	}
	return v4Gen{}
}

type v4Gen struct{}

func (v4Gen) NewID() string { return uuid.NewString() }

// v7Gen falls back to a v4 id once its retries are spent. A log id is never
// worth failing an update over.
type v7Gen struct {
	retries int
}

func (g v7Gen) NewID() string {
	for range g.retries + 1 {
		if id, err := uuid.NewV7(); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}
