//go:generate go run go.uber.org/mock/mockgen -source=favorite.go -destination=../mocks/mock_favorite_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"messenger/domain"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IFavoriteRepository interface {
	IsFavorite(owner, target domain.Ref) (bool, error)
	SetFavorite(owner, target domain.Ref, desired bool) error
	ListFavorites(owner domain.Ref) ([]domain.Favorite, error)
}

// FavoriteRepository keys favorites by the (owner, target) pair itself, so
// uniqueness is structural: concurrent duplicate stars collapse to one row
// instead of racing a check-then-insert.
type FavoriteRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFavoriteRepository(db *badger.DB, log *slog.Logger) FavoriteRepository {
	return FavoriteRepository{db: db, log: log}
}

func favoriteKey(owner, target domain.Ref) []byte {
	return []byte("fav:" + owner.UID() + ":" + target.UID())
}

func ownerPrefix(owner domain.Ref) []byte {
	return []byte("fav:" + owner.UID() + ":")
}

func (f FavoriteRepository) IsFavorite(owner, target domain.Ref) (bool, error) {
	err := f.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(favoriteKey(owner, target))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetFavorite stars or unstars a peer. Both directions are idempotent:
// starring an existing favorite keeps the original row, unstarring a
// missing one is a no-op.
func (f FavoriteRepository) SetFavorite(owner, target domain.Ref, desired bool) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	key := favoriteKey(owner, target)

	if !desired {
		return f.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
	}

	return f.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		favorite := domain.Favorite{
			ID:        uuid.New(),
			Owner:     owner,
			Target:    target,
			CreatedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(favorite)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (f FavoriteRepository) ListFavorites(owner domain.Ref) ([]domain.Favorite, error) {
	prefix := ownerPrefix(owner)
	var favorites []domain.Favorite
	err := f.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var favorite domain.Favorite
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &favorite)
			})
			if err != nil {
				return err
			}
			favorites = append(favorites, favorite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorites, nil
}
