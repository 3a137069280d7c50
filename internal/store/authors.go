package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/openshelf/openshelf-server/internal/domain"
)

const authorPrefix = "author:"

var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrAuthorExists   = errors.New("author already exists")
)

// Author Operations

// CreateAuthor creates a new author.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	key := []byte(authorPrefix + author.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check author exists: %w", err)
	}
	if exists {
		return ErrAuthorExists
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return setTxn(txn, key, author)
	})
	if err != nil {
		return fmt.Errorf("create author: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "author created",
			slog.String("id", author.ID),
			slog.String("name", author.Name),
		)
	}
	return nil
}

// GetAuthor retrieves an author by ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	key := []byte(authorPrefix + id)

	var author domain.Author
	if err := s.get(key, &author); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &author, nil
}

// ListAuthors returns all authors.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	var authors []*domain.Author

	err := s.listPrefix([]byte(authorPrefix), func(val []byte) error {
		var author domain.Author
		if err := unmarshalDoc(val, &author); err != nil {
			return err
		}
		authors = append(authors, &author)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authors, nil
}

// UpdateAuthor updates an existing author.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	key := []byte(authorPrefix + author.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		author.Touch()
		return setTxn(txn, key, author)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

// DeleteAuthor removes an author record.
func (s *Store) DeleteAuthor(ctx context.Context, id string) error {
	key := []byte(authorPrefix + id)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("delete author: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "author deleted", slog.String("id", id))
	}
	return nil
}

// AddBookToAuthor set-adds a book id to the author's back-reference
// collection. Re-adding a present id is a no-op.
func (s *Store) AddBookToAuthor(ctx context.Context, authorID, bookID string) error {
	return s.mutateAuthorBooks(authorID, func(a *domain.Author) bool {
		return a.AddBook(bookID)
	})
}

// RemoveBookFromAuthor set-removes a book id from the author's
// back-reference collection. Removing an absent id is a no-op.
func (s *Store) RemoveBookFromAuthor(ctx context.Context, authorID, bookID string) error {
	return s.mutateAuthorBooks(authorID, func(a *domain.Author) bool {
		return a.RemoveBook(bookID)
	})
}

// mutateAuthorBooks applies a back-reference set mutation in a single
// read-modify-write transaction. The document is only rewritten when
// the set actually changed.
func (s *Store) mutateAuthorBooks(authorID string, mutate func(*domain.Author) bool) error {
	key := []byte(authorPrefix + authorID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var author domain.Author
		if err := getTxn(txn, key, &author); err != nil {
			return err
		}

		if !mutate(&author) {
			return nil
		}

		author.Touch()
		return setTxn(txn, key, &author)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("update author books: %w", err)
	}
	return nil
}
