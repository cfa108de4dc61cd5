package gateway

import (
	"encoding/json"
	"log/slog"
	"messenger/auth"
	"messenger/domain"
	"messenger/mocks"
	"messenger/moderation"
	"messenger/repositories"
	"messenger/services"
	"messenger/storage"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = domain.Ref{Kind: "user", ID: 1}
	bob   = domain.Ref{Kind: "user", ID: 2}
)

// newTestGateway wires a gateway over a real service and stores. The NATS
// connection stays nil; handlers are exercised as plain byte transformers.
func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockIDeliveryPublisher(ctrl)
	publisher.EXPECT().
		PublishMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		AnyTimes()

	log := slog.Default()
	service := services.NewMessengerService(
		repositories.NewMessageRepository(db, log, 30),
		repositories.NewFavoriteRepository(db, log),
		repositories.NewContactIndex(db, log, 30),
		repositories.NewProfileRepository(db, writer, log),
		publisher,
		mocks.NewMockIBlobStore(ctrl),
		storage.NewUploadPolicy(1, []string{"png"}, []string{"txt"}),
		moderation.Moderator{},
		log,
	)
	authorizer := auth.NewChannelAuthorizer([]byte("test-secret"), time.Minute)
	return NewGateway(service, authorizer, nil, log)
}

func decode(t *testing.T, data []byte) reply {
	t.Helper()
	var r reply
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func Test_HandleSend_And_Fetch(t *testing.T) {
	req := require.New(t)
	g := newTestGateway(t)

	out := decode(t, g.handleSend([]byte(`{
		"from": {"kind": "user", "id": 1},
		"to":   {"kind": "user", "id": 2},
		"body": "hello over rpc"
	}`)))
	req.Equal(statusOK, out.Status)

	var sent domain.Message
	req.NoError(json.Unmarshal(out.Payload, &sent))
	req.Equal("hello over rpc", sent.Body)
	req.True(sent.From.Equal(alice))

	out = decode(t, g.handleFetch([]byte(`{
		"self":  {"kind": "user", "id": 2},
		"other": {"kind": "user", "id": 1},
		"page": 1, "page_size": 10
	}`)))
	req.Equal(statusOK, out.Status)

	var page fetchReply
	req.NoError(json.Unmarshal(out.Payload, &page))
	req.Len(page.Messages, 1)
	req.Equal(1, page.Total)
	req.Equal(1, page.LastPage)
	req.NotNil(page.LastMessageID)
}

func Test_HandleSend_Bad_Input(t *testing.T) {
	req := require.New(t)
	g := newTestGateway(t)

	out := decode(t, g.handleSend([]byte(`{not json`)))
	req.Equal(statusBadRequest, out.Status)
	req.NotEmpty(out.Error)

	// Talking to yourself is a validation failure, not a crash.
	out = decode(t, g.handleSend([]byte(`{
		"from": {"kind": "user", "id": 1},
		"to":   {"kind": "user", "id": 1},
		"body": "echo"
	}`)))
	req.Equal(statusBadRequest, out.Status)
}

func Test_HandleSeen_And_Contacts(t *testing.T) {
	req := require.New(t)
	g := newTestGateway(t)

	out := decode(t, g.handleSend([]byte(`{
		"from": {"kind": "user", "id": 1},
		"to":   {"kind": "user", "id": 2},
		"body": "unread"
	}`)))
	req.Equal(statusOK, out.Status)

	out = decode(t, g.handleSeen([]byte(`{
		"self":  {"kind": "user", "id": 2},
		"other": {"kind": "user", "id": 1}
	}`)))
	req.Equal(statusOK, out.Status)
	var seen map[string]int
	req.NoError(json.Unmarshal(out.Payload, &seen))
	req.Equal(1, seen["seen"])

	out = decode(t, g.handleContacts([]byte(`{
		"self": {"kind": "user", "id": 1},
		"page": 1, "page_size": 10
	}`)))
	req.Equal(statusOK, out.Status)
	var contacts contactsReply
	req.NoError(json.Unmarshal(out.Payload, &contacts))
	req.Len(contacts.Contacts, 1)
	req.True(contacts.Contacts[0].Partner.Equal(bob))
}

func Test_HandleFavorites(t *testing.T) {
	req := require.New(t)
	g := newTestGateway(t)

	out := decode(t, g.handleFavoriteSet([]byte(`{
		"owner":   {"kind": "user", "id": 1},
		"target":  {"kind": "user", "id": 2},
		"desired": true
	}`)))
	req.Equal(statusOK, out.Status)

	out = decode(t, g.handleFavoriteList([]byte(`{"owner": {"kind": "user", "id": 1}}`)))
	req.Equal(statusOK, out.Status)
	var listed struct {
		Total int `json:"total"`
	}
	req.NoError(json.Unmarshal(out.Payload, &listed))
	req.Equal(1, listed.Total)
}

func Test_HandleChannelAuth_Status_Mapping(t *testing.T) {
	req := require.New(t)
	g := newTestGateway(t)

	out := decode(t, g.handleChannelAuth([]byte(`{
		"requester": {"kind": "user", "id": 1},
		"claimed":   {"kind": "user", "id": 1},
		"channel":   "private-messenger.user#1",
		"socket_id": "socket-123"
	}`)))
	req.Equal(statusOK, out.Status)
	var granted map[string]string
	req.NoError(json.Unmarshal(out.Payload, &granted))
	req.NotEmpty(granted["grant"])

	// Claiming someone else's channel.
	out = decode(t, g.handleChannelAuth([]byte(`{
		"requester": {"kind": "user", "id": 2},
		"claimed":   {"kind": "user", "id": 1},
		"channel":   "private-messenger.user#1",
		"socket_id": "socket-123"
	}`)))
	req.Equal(statusUnauthorized, out.Status)

	// No session at all.
	out = decode(t, g.handleChannelAuth([]byte(`{
		"claimed":   {"kind": "user", "id": 1},
		"channel":   "private-messenger.user#1",
		"socket_id": "socket-123"
	}`)))
	req.Equal(statusForbidden, out.Status)
}
