//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"messenger/domain"
	"messenger/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	FetchConversation(self, other domain.Ref, page, pageSize int) (ConversationPage, error)
	MarkSeen(self, other domain.Ref) (int, error)
	CountUnseen(self, other domain.Ref) (int, error)
	DeleteMessage(self domain.Ref, id uuid.UUID) (DeleteResult, error)
	DeleteConversation(self, other domain.Ref) (DeleteResult, error)
	SharedAttachments(self, other domain.Ref) ([]domain.Attachment, error)
}

type MessageRepository struct {
	db              *badger.DB
	log             *slog.Logger
	defaultPageSize int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, defaultPageSize int) MessageRepository {
	return MessageRepository{db: db, log: log, defaultPageSize: defaultPageSize}
}

// ConversationPage is one slice of a conversation, most recent first.
type ConversationPage struct {
	Messages      []domain.Message
	Total         int
	LastPage      int
	LastMessageID *uuid.UUID
}

// DeleteResult reports what a deletion actually removed. Attachments holds
// the stored names the caller still has to purge from blob storage.
type DeleteResult struct {
	Deleted     int
	Attachments []string
}

// pairKey identifies the unordered conversation pair. Ordering the two UIDs
// lexicographically makes the key identical for both directions.
func pairKey(a, b domain.Ref) string {
	ua, ub := a.UID(), b.UID()
	if ub < ua {
		ua, ub = ub, ua
	}
	return ua + "|" + ub
}

func conversationPrefix(a, b domain.Ref) []byte {
	return []byte("msg:" + pairKey(a, b) + ":")
}

// messageKey is formatted as "msg:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the message UUID as a collision disconnector
//     if two messages arrive at the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		pairKey(m.From, m.To),
		m.CreatedAt.UnixNano(),
		m.ID,
	))
}

// indexKey maps a message id to its row key, for delete-by-id.
func indexKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

// StoreMessage persists a message and its id index in one transaction.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message), data); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), messageKey(message))
	})
}

// FetchConversation returns every message exchanged between self and other,
// newest first, sliced into Laravel-style pages (1-based page number,
// Total and LastPage computed over the whole conversation).
func (m MessageRepository) FetchConversation(self, other domain.Ref, page, pageSize int) (ConversationPage, error) {
	if pageSize <= 0 {
		pageSize = m.defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	all, err := m.scanConversation(self, other, true)
	if err != nil {
		return ConversationPage{}, err
	}

	total := len(all)
	lastPage := (total + pageSize - 1) / pageSize
	if lastPage == 0 {
		lastPage = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	items := all[start:end]

	result := ConversationPage{Messages: items, Total: total, LastPage: lastPage}
	if len(items) > 0 {
		result.LastMessageID = lo.ToPtr(items[len(items)-1].ID)
	}
	return result, nil
}

// MarkSeen flips every unseen message from other to self in one transaction,
// so concurrent calls for the same pair cannot lose updates.
// Re-invoking once everything is seen is a no-op; the flipped count is returned.
func (m MessageRepository) MarkSeen(self, other domain.Ref) (int, error) {
	prefix := conversationPrefix(self, other)
	flipped := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		flipped = 0
		type pending struct {
			key   []byte
			value []byte
		}
		var updates []pending

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var msg domain.Message
			err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &msg)
			})
			if err != nil {
				it.Close()
				return err
			}
			if msg.Seen || !msg.From.Equal(other) || !msg.To.Equal(self) {
				continue
			}
			msg.Seen = true
			data, err := json.Marshal(msg)
			if err != nil {
				it.Close()
				return err
			}
			updates = append(updates, pending{key: item.KeyCopy(nil), value: data})
		}
		it.Close()

		for _, u := range updates {
			if err := txn.Set(u.key, u.value); err != nil {
				return err
			}
		}
		flipped = len(updates)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flipped, nil
}

// CountUnseen counts messages from other to self that self has not viewed.
func (m MessageRepository) CountUnseen(self, other domain.Ref) (int, error) {
	prefix := conversationPrefix(self, other)
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var msg domain.Message
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &msg)
			})
			if err != nil {
				return err
			}
			if !msg.Seen && msg.From.Equal(other) && msg.To.Equal(self) {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteMessage removes one message owned by self. A message that exists but
// was sent by somebody else is reported as not found rather than forbidden,
// so ids cannot be probed across conversations.
func (m MessageRepository) DeleteMessage(self domain.Ref, id uuid.UUID) (DeleteResult, error) {
	var result DeleteResult
	err := m.db.Update(func(txn *badger.Txn) error {
		idx, err := txn.Get(indexKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		rowKey, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(rowKey)
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var msg domain.Message
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &msg) }); err != nil {
			return err
		}
		if !msg.From.Equal(self) {
			return errors.ErrMessageNotFound
		}
		if msg.Attachment != nil {
			result.Attachments = append(result.Attachments, msg.Attachment.StoredName)
		}
		if err := txn.Delete(rowKey); err != nil {
			return err
		}
		if err := txn.Delete(indexKey(id)); err != nil {
			return err
		}
		result.Deleted = 1
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return result, nil
}

// DeleteConversation removes every message between self and other. Deletion is
// best-effort: each row is deleted in its own transaction and a failing row is
// logged and skipped, so the result reports the count actually removed.
func (m MessageRepository) DeleteConversation(self, other domain.Ref) (DeleteResult, error) {
	all, err := m.scanConversation(self, other, false)
	if err != nil {
		return DeleteResult{}, err
	}

	var result DeleteResult
	for _, msg := range all {
		err := m.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete(messageKey(msg)); err != nil {
				return err
			}
			return txn.Delete(indexKey(msg.ID))
		})
		if err != nil {
			m.log.Warn("conversation delete skipped a message",
				"message_id", msg.ID, "error", err)
			continue
		}
		result.Deleted++
		if msg.Attachment != nil {
			result.Attachments = append(result.Attachments, msg.Attachment.StoredName)
		}
	}
	return result, nil
}

// SharedAttachments lists the attachments of the conversation, newest first.
func (m MessageRepository) SharedAttachments(self, other domain.Ref) ([]domain.Attachment, error) {
	all, err := m.scanConversation(self, other, true)
	if err != nil {
		return nil, err
	}
	var shared []domain.Attachment
	for _, msg := range all {
		if msg.Attachment != nil {
			shared = append(shared, *msg.Attachment)
		}
	}
	return shared, nil
}

// scanConversation loads the conversation into memory. Thanks to the padded
// timestamp in the key a forward scan is oldest first and a reverse scan is
// newest first; retention is unbounded but conversations are two-party, so a
// full scan stays within the intended scale.
func (m MessageRepository) scanConversation(self, other domain.Ref, newestFirst bool) ([]domain.Message, error) {
	prefix := conversationPrefix(self, other)
	var out []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = newestFirst
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if newestFirst {
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), 0xFF)
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var msg domain.Message
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &msg)
			})
			if err != nil {
				return err
			}
			out = append(out, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
