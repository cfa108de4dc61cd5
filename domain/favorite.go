package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite records that Owner starred Target.
// At most one favorite may exist per (owner, target) pair.
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	Owner     Ref       `json:"owner"`
	Target    Ref       `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}
