// Package domain contains core concepts of the messenger.
// Entities here are immutable values validated by the domain;
// no runtime, network, or storage logic should be added here.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref identifies any message participant as a tagged (kind, id) pair.
// The kind discriminates between participant models (e.g. "user", "bot")
// so different populations can share one message store.
type Ref struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// UID returns the canonical string form "kind#id".
// It is embedded in storage keys and channel names, which is why
// Validate rejects kinds containing key separator characters.
func (r Ref) UID() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

func (r Ref) Equal(other Ref) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

// Validate ensures the reference is usable as a key component.
func (r Ref) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("identity reference: empty kind")
	}
	if strings.ContainsAny(r.Kind, ":|#") {
		return fmt.Errorf("identity reference: kind %q contains a reserved character", r.Kind)
	}
	if r.ID <= 0 {
		return fmt.Errorf("identity reference: non-positive id %d", r.ID)
	}
	return nil
}

// ParseRef is the inverse of UID.
func ParseRef(uid string) (Ref, error) {
	kind, rawID, found := strings.Cut(uid, "#")
	if !found || kind == "" {
		return Ref{}, fmt.Errorf("malformed identity reference %q", uid)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("malformed identity reference %q: %w", uid, err)
	}
	return Ref{Kind: kind, ID: id}, nil
}
