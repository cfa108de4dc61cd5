package services

import (
	"context"
	"fmt"
	"log/slog"
	"messenger/domain"
	"messenger/errors"
	"messenger/moderation"
	"messenger/realtime"
	"messenger/repositories"
	"messenger/storage"
	"time"

	"github.com/google/uuid"
)

type IMessengerService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	FetchConversation(cmd domain.FetchConversationCommand) (repositories.ConversationPage, error)
	MarkSeen(ctx context.Context, self, other domain.Ref) (int, error)
	CountUnseen(self, other domain.Ref) (int, error)
	ListContacts(self domain.Ref, page, pageSize int) (ContactList, error)
	SearchContacts(ctx context.Context, self domain.Ref, input string, limit int) ([]domain.Profile, error)
	IsFavorite(owner, target domain.Ref) (bool, error)
	SetFavorite(owner, target domain.Ref, desired bool) error
	ListFavorites(owner domain.Ref) ([]FavoriteItem, error)
	DeleteMessage(self domain.Ref, id uuid.UUID) (repositories.DeleteResult, error)
	DeleteConversation(self, other domain.Ref) (repositories.DeleteResult, error)
	SharedAttachments(self, other domain.Ref) ([]SharedAttachment, error)
	AttachmentDownloadURL(name string) (string, error)
}

// Contact pairs a conversation summary with the partner's display profile.
type Contact struct {
	domain.ContactSummary
	Profile domain.Profile
}

type ContactList struct {
	Contacts []Contact
	Total    int
	LastPage int
}

// FavoriteItem is a starred peer with its resolved profile. Favorites only
// store reference pairs, so the profile comes from the identity collaborator.
type FavoriteItem struct {
	Target  domain.Ref
	Profile domain.Profile
}

type SharedAttachment struct {
	domain.Attachment
	URL   string
	Image bool
}

// MessengerService glues the stores, the delivery publisher, and the blob
// collaborator together. Persistence always comes first; publishing and blob
// purging are best-effort afterthoughts.
type MessengerService struct {
	messages  repositories.IMessageRepository
	favorites repositories.IFavoriteRepository
	contacts  repositories.IContactIndex
	profiles  repositories.IProfileRepository
	publisher realtime.IDeliveryPublisher
	blobs     storage.IBlobStore
	policy    storage.UploadPolicy
	moderator moderation.Moderator
	log       *slog.Logger
}

func NewMessengerService(
	messages repositories.IMessageRepository,
	favorites repositories.IFavoriteRepository,
	contacts repositories.IContactIndex,
	profiles repositories.IProfileRepository,
	publisher realtime.IDeliveryPublisher,
	blobs storage.IBlobStore,
	policy storage.UploadPolicy,
	moderator moderation.Moderator,
	log *slog.Logger,
) *MessengerService {
	return &MessengerService{
		messages:  messages,
		favorites: favorites,
		contacts:  contacts,
		profiles:  profiles,
		publisher: publisher,
		blobs:     blobs,
		policy:    policy,
		moderator: moderator,
		log:       log,
	}
}

// Send validates, stores the attachment if any, persists the message, and
// only then announces it. A failed publish is logged by the publisher and
// never rolls the message back.
func (s *MessengerService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := validateSend(cmd); err != nil {
		return domain.Message{}, err
	}

	var attachment *domain.Attachment
	if cmd.Upload != nil {
		admitted, err := s.policy.Admit(*cmd.Upload)
		if err != nil {
			return domain.Message{}, err
		}
		if err := s.blobs.Store(admitted.StoredName, cmd.Upload.Data); err != nil {
			return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
		}
		attachment = &admitted
	}

	body := cmd.Body
	if censored, flagged := s.moderator.Censor(cmd.Body); len(flagged) > 0 {
		s.log.Info("message body censored",
			"from", cmd.From.UID(),
			"terms", len(flagged),
			"lang", moderation.DetectLanguage(cmd.Body))
		body = censored
	}

	kind := cmd.Kind
	if kind == "" {
		kind = domain.KindDirect
	}
	message := domain.Message{
		ID:         uuid.New(),
		Kind:       kind,
		From:       cmd.From,
		To:         cmd.To,
		RoomID:     cmd.RoomID,
		Body:       body,
		Attachment: attachment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.StoreMessage(message); err != nil {
		if attachment != nil {
			s.purgeBlobs([]string{attachment.StoredName})
		}
		return domain.Message{}, err
	}

	s.publisher.PublishMessage(ctx, cmd.To, realtime.EventMessaging, realtime.MessageDelivered{
		From:    cmd.From,
		To:      cmd.To,
		Message: message,
	})
	return message, nil
}

func (s *MessengerService) FetchConversation(cmd domain.FetchConversationCommand) (repositories.ConversationPage, error) {
	if err := validateFetch(cmd); err != nil {
		return repositories.ConversationPage{}, err
	}
	return s.messages.FetchConversation(cmd.Self, cmd.Other, cmd.Page, cmd.PageSize)
}

// MarkSeen flips the unseen messages from other to self and, when anything
// changed, tells the other side their messages were viewed.
func (s *MessengerService) MarkSeen(ctx context.Context, self, other domain.Ref) (int, error) {
	flipped, err := s.messages.MarkSeen(self, other)
	if err != nil {
		return 0, err
	}
	if flipped > 0 {
		s.publisher.PublishMessage(ctx, other, realtime.EventSeen, realtime.ConversationSeen{
			By:   self,
			With: other,
		})
	}
	return flipped, nil
}

func (s *MessengerService) CountUnseen(self, other domain.Ref) (int, error) {
	return s.messages.CountUnseen(self, other)
}

func (s *MessengerService) ListContacts(self domain.Ref, page, pageSize int) (ContactList, error) {
	indexed, err := s.contacts.ListContacts(self, page, pageSize)
	if err != nil {
		return ContactList{}, err
	}
	list := ContactList{Total: indexed.Total, LastPage: indexed.LastPage}
	for _, summary := range indexed.Contacts {
		contact := Contact{ContactSummary: summary}
		profile, err := s.profiles.Get(summary.Partner)
		if err != nil {
			// A partner without a profile still has a conversation; show it.
			s.log.Warn("contact profile lookup failed",
				"partner", summary.Partner.UID(), "error", err)
		} else {
			contact.Profile = profile
		}
		list.Contacts = append(list.Contacts, contact)
	}
	return list, nil
}

func (s *MessengerService) SearchContacts(ctx context.Context, self domain.Ref, input string, limit int) ([]domain.Profile, error) {
	return s.profiles.Search(ctx, input, self, limit)
}

func (s *MessengerService) IsFavorite(owner, target domain.Ref) (bool, error) {
	return s.favorites.IsFavorite(owner, target)
}

func (s *MessengerService) SetFavorite(owner, target domain.Ref, desired bool) error {
	return s.favorites.SetFavorite(owner, target, desired)
}

func (s *MessengerService) ListFavorites(owner domain.Ref) ([]FavoriteItem, error) {
	favorites, err := s.favorites.ListFavorites(owner)
	if err != nil {
		return nil, err
	}
	var items []FavoriteItem
	for _, favorite := range favorites {
		item := FavoriteItem{Target: favorite.Target}
		profile, err := s.profiles.Get(favorite.Target)
		if err != nil {
			s.log.Warn("favorite profile lookup failed",
				"target", favorite.Target.UID(), "error", err)
		} else {
			item.Profile = profile
		}
		items = append(items, item)
	}
	return items, nil
}

// DeleteMessage removes the row, then purges its attachment blob.
// The two are not transactional: a crash in between leaves an orphaned blob,
// which is an accepted, logged leak.
func (s *MessengerService) DeleteMessage(self domain.Ref, id uuid.UUID) (repositories.DeleteResult, error) {
	result, err := s.messages.DeleteMessage(self, id)
	if err != nil {
		return repositories.DeleteResult{}, err
	}
	s.purgeBlobs(result.Attachments)
	return result, nil
}

func (s *MessengerService) DeleteConversation(self, other domain.Ref) (repositories.DeleteResult, error) {
	result, err := s.messages.DeleteConversation(self, other)
	if err != nil {
		return repositories.DeleteResult{}, err
	}
	s.purgeBlobs(result.Attachments)
	return result, nil
}

func (s *MessengerService) SharedAttachments(self, other domain.Ref) ([]SharedAttachment, error) {
	attachments, err := s.messages.SharedAttachments(self, other)
	if err != nil {
		return nil, err
	}
	var shared []SharedAttachment
	for _, attachment := range attachments {
		shared = append(shared, SharedAttachment{
			Attachment: attachment,
			URL:        s.blobs.URL(attachment.StoredName),
			Image:      s.policy.IsImage(attachment.StoredName),
		})
	}
	return shared, nil
}

func (s *MessengerService) AttachmentDownloadURL(name string) (string, error) {
	if !s.blobs.Exists(name) {
		return "", errors.ErrAttachmentNotFound
	}
	return s.blobs.URL(name), nil
}

// purgeBlobs deletes attachment blobs best-effort. Failures downgrade to a
// log line; the rows are already gone and must stay gone.
func (s *MessengerService) purgeBlobs(names []string) {
	for _, name := range names {
		if !s.blobs.Exists(name) {
			continue
		}
		if err := s.blobs.Delete(name); err != nil {
			s.log.Warn("attachment purge failed",
				"stored_name", name, "error", fmt.Errorf("%w: %v", errors.ErrStorage, err))
		}
	}
}
