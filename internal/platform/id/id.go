package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID issues random RFC 4122 identifiers, used for HTTP request ids.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Fixed always returns the same value.
type Fixed string

func (f Fixed) New() string {
	return string(f)
}
