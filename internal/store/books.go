package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/openshelf/openshelf-server/internal/domain"
)

const bookPrefix = "book:"

var (
	ErrBookNotFound = errors.New("book not found")
	ErrBookExists   = errors.New("book already exists")
)

// Book Operations

// CreateBook creates a new book.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	key := []byte(bookPrefix + book.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if exists {
		return ErrBookExists
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return setTxn(txn, key, book)
	})
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("author", book.AuthorID),
			slog.Int("categories", len(book.CategoryIDs)),
		)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	key := []byte(bookPrefix + id)

	var book domain.Book
	if err := s.get(key, &book); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// ListBooks returns all books.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book

	err := s.listPrefix([]byte(bookPrefix), func(val []byte) error {
		var book domain.Book
		if err := unmarshalDoc(val, &book); err != nil {
			return err
		}
		books = append(books, &book)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListBooksByCategory returns every book whose forward references
// contain the given category. This scans the canonical Book records
// rather than trusting the category's back-reference set, so cascade
// cleanup stays correct even if the sets have drifted.
func (s *Store) ListBooksByCategory(ctx context.Context, categoryID string) ([]*domain.Book, error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*domain.Book
	for _, book := range books {
		if book.InCategory(categoryID) {
			matched = append(matched, book)
		}
	}
	return matched, nil
}

// UpdateBook updates an existing book.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	key := []byte(bookPrefix + book.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		book.Touch()
		return setTxn(txn, key, book)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// RemoveCategoryFromBook set-removes a category id from a book's
// forward references. Used by the category delete cascade.
func (s *Store) RemoveCategoryFromBook(ctx context.Context, bookID, categoryID string) error {
	key := []byte(bookPrefix + bookID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var book domain.Book
		if err := getTxn(txn, key, &book); err != nil {
			return err
		}

		categories, changed := domain.RemoveRef(book.CategoryIDs, categoryID)
		if !changed {
			return nil
		}
		book.CategoryIDs = categories
		book.Touch()
		return setTxn(txn, key, &book)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("remove category from book: %w", err)
	}
	return nil
}

// DeleteBook removes a book record.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	key := []byte(bookPrefix + id)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book deleted", slog.String("id", id))
	}
	return nil
}
