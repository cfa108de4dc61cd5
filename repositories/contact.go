//go:generate go run go.uber.org/mock/mockgen -source=contact.go -destination=../mocks/mock_contact_index.go -package=mocks
package repositories

import (
	"encoding/json"
	"log/slog"
	"messenger/domain"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type IContactIndex interface {
	ListContacts(self domain.Ref, page, pageSize int) (ContactPage, error)
}

// ContactIndex derives the distinct set of conversation partners from the
// message keyspace. Nothing is persisted; the index is recomputed on demand.
type ContactIndex struct {
	db              *badger.DB
	log             *slog.Logger
	defaultPageSize int
}

func NewContactIndex(db *badger.DB, log *slog.Logger, defaultPageSize int) ContactIndex {
	return ContactIndex{db: db, log: log, defaultPageSize: defaultPageSize}
}

type ContactPage struct {
	Contacts []domain.ContactSummary
	Total    int
	LastPage int
}

// ListContacts scans every message involving self, groups by the other
// participant, and orders groups by their most recent activity. Groups with
// equal activity keep their first-seen order, which makes pagination stable.
func (c ContactIndex) ListContacts(self domain.Ref, page, pageSize int) (ContactPage, error) {
	if pageSize <= 0 {
		pageSize = c.defaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	type group struct {
		summary domain.ContactSummary
	}
	selfUID := self.UID()
	groups := make(map[string]*group)
	var firstSeen []string

	prefix := []byte("msg:")
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			partnerUID, involved := partnerFromKey(string(item.Key()), selfUID)
			if !involved {
				continue
			}

			var msg domain.Message
			err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &msg)
			})
			if err != nil {
				return err
			}

			g, ok := groups[partnerUID]
			if !ok {
				partner, err := domain.ParseRef(partnerUID)
				if err != nil {
					c.log.Warn("skipping unparsable conversation key",
						"key", string(item.Key()), "error", err)
					continue
				}
				g = &group{summary: domain.ContactSummary{Partner: partner}}
				groups[partnerUID] = g
				firstSeen = append(firstSeen, partnerUID)
			}
			if msg.CreatedAt.After(g.summary.LastMessageAt) {
				g.summary.LastMessageAt = msg.CreatedAt
			}
			if !msg.Seen && msg.To.Equal(self) {
				g.summary.UnseenCount++
			}
		}
		return nil
	})
	if err != nil {
		return ContactPage{}, err
	}

	contacts := make([]domain.ContactSummary, 0, len(firstSeen))
	for _, uid := range firstSeen {
		contacts = append(contacts, groups[uid].summary)
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].LastMessageAt.After(contacts[j].LastMessageAt)
	})

	total := len(contacts)
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
	return ContactPage{Contacts: contacts[start:end], Total: total, LastPage: lastPage}, nil
}

// partnerFromKey extracts the other participant from a message row key
// "msg:{uidA|uidB}:{ts}:{uuid}" without touching the value. The second
// return is false when self is not part of the pair.
func partnerFromKey(key, selfUID string) (string, bool) {
	trimmed := strings.TrimPrefix(key, "msg:")
	pair, _, found := strings.Cut(trimmed, ":")
	if !found {
		return "", false
	}
	a, b, found := strings.Cut(pair, "|")
	if !found {
		return "", false
	}
	switch selfUID {
	case a:
		return b, true
	case b:
		return a, true
	default:
		return "", false
	}
}
