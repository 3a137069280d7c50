package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/openshelf/openshelf-server/internal/domain"
)

const categoryPrefix = "category:"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

// Category Operations

// CreateCategory creates a new category.
func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	key := []byte(categoryPrefix + category.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check category exists: %w", err)
	}
	if exists {
		return ErrCategoryExists
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return setTxn(txn, key, category)
	})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "category created",
			slog.String("id", category.ID),
			slog.String("name", category.Name),
		)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	key := []byte(categoryPrefix + id)

	var category domain.Category
	if err := s.get(key, &category); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// GetCategoriesByIDs fetches the categories whose ids are in the given
// list. Missing ids are skipped, not errors; duplicate ids yield one
// record. Callers compare the result count against the request count
// for all-or-nothing reference validation.
func (s *Store) GetCategoriesByIDs(ctx context.Context, ids []string) ([]*domain.Category, error) {
	categories := make([]*domain.Category, 0, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range domain.DedupeRefs(ids) {
			var category domain.Category
			err := getTxn(txn, []byte(categoryPrefix+id), &category)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			categories = append(categories, &category)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get categories by ids: %w", err)
	}
	return categories, nil
}

// ListCategories returns all categories.
func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var categories []*domain.Category

	err := s.listPrefix([]byte(categoryPrefix), func(val []byte) error {
		var category domain.Category
		if err := unmarshalDoc(val, &category); err != nil {
			return err
		}
		categories = append(categories, &category)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory updates an existing category.
func (s *Store) UpdateCategory(ctx context.Context, category *domain.Category) error {
	key := []byte(categoryPrefix + category.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		category.Touch()
		return setTxn(txn, key, category)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category record.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	key := []byte(categoryPrefix + id)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "category deleted", slog.String("id", id))
	}
	return nil
}

// AddBookToCategories set-adds a book id to each listed category's
// back-reference collection. Re-adding a present id is a no-op.
func (s *Store) AddBookToCategories(ctx context.Context, categoryIDs []string, bookID string) error {
	for _, categoryID := range categoryIDs {
		err := s.mutateCategoryBooks(categoryID, func(c *domain.Category) bool {
			return c.AddBook(bookID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveBookFromCategories set-removes a book id from each listed
// category's back-reference collection. Removing an absent id is a no-op.
func (s *Store) RemoveBookFromCategories(ctx context.Context, categoryIDs []string, bookID string) error {
	for _, categoryID := range categoryIDs {
		err := s.mutateCategoryBooks(categoryID, func(c *domain.Category) bool {
			return c.RemoveBook(bookID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// mutateCategoryBooks applies a back-reference set mutation in a single
// read-modify-write transaction, rewriting the document only when the
// set changed.
func (s *Store) mutateCategoryBooks(categoryID string, mutate func(*domain.Category) bool) error {
	key := []byte(categoryPrefix + categoryID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var category domain.Category
		if err := getTxn(txn, key, &category); err != nil {
			return err
		}

		if !mutate(&category) {
			return nil
		}

		category.Touch()
		return setTxn(txn, key, &category)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update category books: %w", err)
	}
	return nil
}
