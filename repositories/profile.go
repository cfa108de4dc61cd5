//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"messenger/domain"
	"messenger/errors"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

type IProfileRepository interface {
	Put(profile domain.Profile) error
	Get(ref domain.Ref) (domain.Profile, error)
	Search(ctx context.Context, input string, exclude domain.Ref, limit int) ([]domain.Profile, error)
}

// ProfileRepository stores display profiles in BadgerDB and mirrors their
// names into a Bluge index so contacts can be found by partial name.
type ProfileRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewProfileRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) ProfileRepository {
	return ProfileRepository{db: db, index: index, log: log}
}

func profileKey(ref domain.Ref) []byte {
	return []byte("profile:" + ref.UID())
}

func (p ProfileRepository) Put(profile domain.Profile) error {
	if err := profile.Ref.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.Ref), data)
	})
	if err != nil {
		return err
	}

	doc := bluge.NewDocument(profile.Ref.UID()).
		AddField(bluge.NewTextField("name", profile.Name).StoreValue())
	return p.index.Update(doc.ID(), doc)
}

func (p ProfileRepository) Get(ref domain.Ref) (domain.Profile, error) {
	var profile domain.Profile
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(ref))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &profile)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Profile{}, errors.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Search matches profiles by name, full-token or prefix, excluding the
// searcher so people do not find themselves in their own contact search.
func (p ProfileRepository) Search(ctx context.Context, input string, exclude domain.Ref, limit int) ([]domain.Profile, error) {
	if limit <= 0 || strings.TrimSpace(input) == "" {
		return nil, nil
	}

	reader, err := p.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	match := bluge.NewMatchQuery(input)
	match.SetField("name")
	prefix := bluge.NewPrefixQuery(strings.ToLower(strings.TrimSpace(input)))
	prefix.SetField("name")
	query := bluge.NewBooleanQuery().
		AddShould(match).
		AddShould(prefix).
		SetMinShould(1)

	// One extra hit absorbs the excluded searcher without shorting the page.
	request := bluge.NewTopNSearch(limit+1, query)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var results []domain.Profile
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil || len(results) == limit {
			break
		}
		var uid string
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				uid = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		ref, err := domain.ParseRef(uid)
		if err != nil || ref.Equal(exclude) {
			continue
		}
		profile, err := p.Get(ref)
		if err != nil {
			p.log.Warn("indexed profile missing from store", "uid", uid, "error", err)
			continue
		}
		results = append(results, profile)
	}
	return results, nil
}
