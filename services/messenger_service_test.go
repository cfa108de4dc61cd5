package services

import (
	"context"
	"log/slog"
	"messenger/domain"
	"messenger/errors"
	"messenger/mocks"
	"messenger/moderation"
	"messenger/realtime"
	"messenger/repositories"
	"messenger/storage"
	"strings"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = domain.Ref{Kind: "user", ID: 1}
	bob   = domain.Ref{Kind: "user", ID: 2}
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type fixture struct {
	service   *MessengerService
	publisher *mocks.MockIDeliveryPublisher
	blobs     *mocks.MockIBlobStore
	profiles  repositories.ProfileRepository
}

func newFixture(t *testing.T, blockedWords ...string) fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockIDeliveryPublisher(ctrl)
	blobs := mocks.NewMockIBlobStore(ctrl)
	log := slog.Default()

	moderator, err := moderation.NewModerator(blockedWords, '*', log)
	require.NoError(t, err)

	profiles := repositories.NewProfileRepository(db, writer, log)
	service := NewMessengerService(
		repositories.NewMessageRepository(db, log, 30),
		repositories.NewFavoriteRepository(db, log),
		repositories.NewContactIndex(db, log, 30),
		profiles,
		publisher,
		blobs,
		storage.NewUploadPolicy(1, []string{"png"}, []string{"txt"}),
		moderator,
		log,
	)
	return fixture{service: service, publisher: publisher, blobs: blobs, profiles: profiles}
}

func Test_Send_Fetch_Seen_Cycle(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)
	ctx := context.Background()

	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())

	sent, err := fix.service.Send(ctx, domain.SendMessageCommand{
		From: alice, To: bob, Body: "hello bob",
	})
	req.NoError(err)
	req.Equal(domain.KindDirect, sent.Kind)
	req.False(sent.Seen)

	page, err := fix.service.FetchConversation(domain.FetchConversationCommand{
		Self: bob, Other: alice, Page: 1, PageSize: 10,
	})
	req.NoError(err)
	req.Len(page.Messages, 1)
	req.Equal("hello bob", page.Messages[0].Body)

	unseen, err := fix.service.CountUnseen(bob, alice)
	req.NoError(err)
	req.Equal(1, unseen)

	// Bob views the conversation; Alice gets told once.
	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), alice, realtime.EventSeen, realtime.ConversationSeen{By: bob, With: alice})

	flipped, err := fix.service.MarkSeen(ctx, bob, alice)
	req.NoError(err)
	req.Equal(1, flipped)

	// Nothing left to flip; no second notification.
	flipped, err = fix.service.MarkSeen(ctx, bob, alice)
	req.NoError(err)
	req.Equal(0, flipped)

	unseen, err = fix.service.CountUnseen(bob, alice)
	req.NoError(err)
	req.Equal(0, unseen)
}

func Test_Send_Rejects_Oversized_Body(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)

	_, err := fix.service.Send(context.Background(), domain.SendMessageCommand{
		From: alice, To: bob, Body: strings.Repeat("a", 5001),
	})
	req.ErrorIs(err, errors.ErrValidation)

	// Exactly at the limit still goes through.
	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())
	_, err = fix.service.Send(context.Background(), domain.SendMessageCommand{
		From: alice, To: bob, Body: strings.Repeat("a", 5000),
	})
	req.NoError(err)
}

func Test_Send_Censors_Blocked_Terms(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t, "badger")
	ctx := context.Background()

	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any()).
		Times(2)

	sent, err := fix.service.Send(ctx, domain.SendMessageCommand{
		From: alice, To: bob, Body: "have you seen the badger today",
	})
	req.NoError(err)
	req.Equal("have you seen the ****** today", sent.Body)

	// The censored body is what gets persisted.
	page, err := fix.service.FetchConversation(domain.FetchConversationCommand{
		Self: bob, Other: alice, Page: 1, PageSize: 10,
	})
	req.NoError(err)
	req.Equal("have you seen the ****** today", page.Messages[0].Body)

	sent, err = fix.service.Send(ctx, domain.SendMessageCommand{
		From: alice, To: bob, Body: "nothing suspicious here",
	})
	req.NoError(err)
	req.Equal("nothing suspicious here", sent.Body)
}

func Test_Send_Rejects_Self_And_Empty(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)
	ctx := context.Background()

	_, err := fix.service.Send(ctx, domain.SendMessageCommand{From: alice, To: alice, Body: "note to self"})
	req.ErrorIs(err, errors.ErrValidation)

	_, err = fix.service.Send(ctx, domain.SendMessageCommand{From: alice, To: bob})
	req.ErrorIs(err, errors.ErrValidation)
}

func Test_Send_Stores_Attachment_Then_Delete_Purges_It(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)
	ctx := context.Background()

	var storedName string
	fix.blobs.EXPECT().
		Store(gomock.Any(), pngBytes).
		DoAndReturn(func(name string, _ []byte) error {
			storedName = name
			return nil
		})
	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())

	sent, err := fix.service.Send(ctx, domain.SendMessageCommand{
		From: alice, To: bob,
		Upload: &domain.Upload{OriginalName: "photo.png", Data: pngBytes},
	})
	req.NoError(err)
	req.NotNil(sent.Attachment)
	req.Equal(storedName, sent.Attachment.StoredName)
	req.Equal("photo.png", sent.Attachment.OriginalName)

	fix.blobs.EXPECT().Exists(storedName).Return(true)
	fix.blobs.EXPECT().Delete(storedName).Return(nil)

	result, err := fix.service.DeleteMessage(alice, sent.ID)
	req.NoError(err)
	req.Equal(1, result.Deleted)
	req.Equal([]string{storedName}, result.Attachments)
}

func Test_Send_Blob_Failure_Is_Storage_Error(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)

	fix.blobs.EXPECT().
		Store(gomock.Any(), gomock.Any()).
		Return(errors.ErrStorage)

	_, err := fix.service.Send(context.Background(), domain.SendMessageCommand{
		From: alice, To: bob,
		Upload: &domain.Upload{OriginalName: "photo.png", Data: pngBytes},
	})
	req.ErrorIs(err, errors.ErrStorage)

	// The message never made it to the store.
	page, err := fix.service.FetchConversation(domain.FetchConversationCommand{
		Self: bob, Other: alice, Page: 1, PageSize: 10,
	})
	req.NoError(err)
	req.Empty(page.Messages)
}

func Test_DeleteMessage_Unknown_Or_Foreign_Id(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)
	ctx := context.Background()

	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())
	sent, err := fix.service.Send(ctx, domain.SendMessageCommand{From: alice, To: bob, Body: "mine"})
	req.NoError(err)

	// The receiver cannot delete the sender's message.
	_, err = fix.service.DeleteMessage(bob, sent.ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)

	_, err = fix.service.DeleteMessage(alice, uuid.New())
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_ListContacts_Resolves_Profiles(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)
	ctx := context.Background()

	req.NoError(fix.profiles.Put(domain.Profile{Ref: bob, Name: "Bob Martin", Avatar: "bob.png"}))

	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())
	_, err := fix.service.Send(ctx, domain.SendMessageCommand{From: alice, To: bob, Body: "hi"})
	req.NoError(err)

	list, err := fix.service.ListContacts(alice, 1, 10)
	req.NoError(err)
	req.Len(list.Contacts, 1)
	req.True(list.Contacts[0].Partner.Equal(bob))
	req.Equal("Bob Martin", list.Contacts[0].Profile.Name)
}

func Test_ListContacts_Survives_Missing_Profile(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)

	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())
	_, err := fix.service.Send(context.Background(), domain.SendMessageCommand{From: alice, To: bob, Body: "hi"})
	require.NoError(t, err)

	list, err := fix.service.ListContacts(alice, 1, 10)
	req.NoError(err)
	req.Len(list.Contacts, 1)
	req.Empty(list.Contacts[0].Profile.Name)
}

func Test_Favorites_Round_Trip(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)

	req.NoError(fix.profiles.Put(domain.Profile{Ref: bob, Name: "Bob Martin"}))

	starred, err := fix.service.IsFavorite(alice, bob)
	req.NoError(err)
	req.False(starred)

	req.NoError(fix.service.SetFavorite(alice, bob, true))
	req.NoError(fix.service.SetFavorite(alice, bob, true))

	starred, err = fix.service.IsFavorite(alice, bob)
	req.NoError(err)
	req.True(starred)

	items, err := fix.service.ListFavorites(alice)
	req.NoError(err)
	req.Len(items, 1)
	req.Equal("Bob Martin", items[0].Profile.Name)

	req.NoError(fix.service.SetFavorite(alice, bob, false))
	items, err = fix.service.ListFavorites(alice)
	req.NoError(err)
	req.Empty(items)
}

func Test_SharedAttachments_Carry_URL_And_Kind(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)
	ctx := context.Background()

	var storedName string
	fix.blobs.EXPECT().
		Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(name string, _ []byte) error {
			storedName = name
			return nil
		})
	fix.publisher.EXPECT().
		PublishMessage(gomock.Any(), bob, realtime.EventMessaging, gomock.Any())

	_, err := fix.service.Send(ctx, domain.SendMessageCommand{
		From: alice, To: bob,
		Upload: &domain.Upload{OriginalName: "photo.png", Data: pngBytes},
	})
	req.NoError(err)

	fix.blobs.EXPECT().
		URL(gomock.Any()).
		DoAndReturn(func(name string) string { return "http://localhost/attachments/" + name })

	shared, err := fix.service.SharedAttachments(alice, bob)
	req.NoError(err)
	req.Len(shared, 1)
	req.Equal(storedName, shared[0].StoredName)
	req.Equal("http://localhost/attachments/"+storedName, shared[0].URL)
	req.True(shared[0].Image)
}

func Test_AttachmentDownloadURL(t *testing.T) {
	req := require.New(t)
	fix := newFixture(t)

	fix.blobs.EXPECT().Exists("gone.png").Return(false)
	_, err := fix.service.AttachmentDownloadURL("gone.png")
	req.ErrorIs(err, errors.ErrAttachmentNotFound)

	fix.blobs.EXPECT().Exists("here.png").Return(true)
	fix.blobs.EXPECT().URL("here.png").Return("http://localhost/attachments/here.png")
	url, err := fix.service.AttachmentDownloadURL("here.png")
	req.NoError(err)
	req.Equal("http://localhost/attachments/here.png", url)
}
