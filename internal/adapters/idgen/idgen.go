package idgen

import "github.com/google/uuid"

// Generator creates UUIDv4 identifiers for devices and requests.
type Generator struct{}

// NewID returns a UUIDv4 string.
func (Generator) NewID() string {
	return uuid.NewString()
}
