package id

import "github.com/google/uuid"

// New returns a random UUID string for request and usage identifiers.
func New() string {
	return uuid.NewString()
}

// Valid reports whether raw is a UUID, used to decide whether a client
// supplied X-Request-ID can be echoed back.
func Valid(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}
