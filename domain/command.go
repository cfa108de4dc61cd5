package domain

// Upload carries the raw bytes of a file the sender wants to attach.
// The upload policy decides whether it is acceptable and how it is named.
type Upload struct {
	OriginalName string
	Data         []byte
}

// SendMessageCommand is the request to persist and announce a new message.
// From is the authenticated caller, threaded explicitly; there is no
// ambient session in this package.
type SendMessageCommand struct {
	Kind   ConversationKind `validate:"omitempty,oneof=user group"`
	From   Ref              `validate:"required"`
	To     Ref              `validate:"required"`
	RoomID *int64
	Body   string
	Upload *Upload
}

// FetchConversationCommand pages through the history between Self and Other,
// most recent first.
type FetchConversationCommand struct {
	Self     Ref `validate:"required"`
	Other    Ref `validate:"required"`
	Page     int `validate:"min=0"`
	PageSize int `validate:"min=0"`
}
