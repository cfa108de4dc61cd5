package domain

import "time"

// ContactSummary is a derived view of one conversation from the point of
// view of a single participant. It is recomputed on demand, never stored.
type ContactSummary struct {
	Partner       Ref       `json:"partner"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnseenCount   int       `json:"unseen_count"`
}
