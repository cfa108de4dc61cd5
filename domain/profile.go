package domain

// Profile is the display data of a participant, resolved through the
// identity-resolution collaborator. The message store itself never needs it;
// only listing operations do.
type Profile struct {
	Ref    Ref    `json:"ref"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
