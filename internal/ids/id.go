// Package ids provides the identifier and content-hashing primitives shared
// across comfygit: KSUID-based opaque ids (environments, download jobs) and
// the model short-hash fingerprint algorithm.
package ids

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// ID is an opaque, sortable identifier.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// New generates a fresh KSUID-backed ID.
func New() (ID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate new id: %w", err)
	}
	return ID(id.String()), nil
}

// MustNew panics if id generation fails; used at process init only.
func MustNew() ID {
	id, err := New()
	if err != nil {
		panic(err)
	}
	return id
}

// Parse validates s as a KSUID-formatted ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("empty id")
	}
	if _, err := ksuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid id format: %w", err)
	}
	return ID(s), nil
}
