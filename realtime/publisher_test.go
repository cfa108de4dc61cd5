package realtime

import (
	"encoding/json"
	"messenger/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SubjectFor(t *testing.T) {
	req := require.New(t)
	req.Equal("chat.direct.user.1", SubjectFor(domain.Ref{Kind: "user", ID: 1}))
	req.Equal("chat.direct.guest.42", SubjectFor(domain.Ref{Kind: "guest", ID: 42}))
}

func Test_Envelope_Shape(t *testing.T) {
	req := require.New(t)

	data, err := json.Marshal(envelope{
		Event: EventSeen,
		Payload: ConversationSeen{
			By:   domain.Ref{Kind: "user", ID: 2},
			With: domain.Ref{Kind: "user", ID: 1},
		},
	})
	req.NoError(err)

	var decoded struct {
		Event   string           `json:"event"`
		Payload ConversationSeen `json:"payload"`
	}
	req.NoError(json.Unmarshal(data, &decoded))
	req.Equal(EventSeen, decoded.Event)
	req.Equal(int64(2), decoded.Payload.By.ID)
}
