package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openshelf/openshelf-server/internal/domain"
	"github.com/openshelf/openshelf-server/internal/store"
)

// Synchronizer keeps the denormalized back-reference sets on Author and
// Category aligned with the forward references stored on Book. Each
// back-reference write is its own store transaction; there is no
// transaction spanning the book record and its related records. All
// mutations are idempotent set operations, so a sequence interrupted by
// a crash converges when the same logical operation is retried.
//
// Ordering is fixed: the author back-reference is adjusted first, then
// category removals, then category additions.
type Synchronizer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSynchronizer creates a new relationship synchronizer.
func NewSynchronizer(st *store.Store, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{store: st, logger: logger}
}

// LinkBook records a newly created book on its author and each of its
// categories.
func (s *Synchronizer) LinkBook(ctx context.Context, book *domain.Book) error {
	if err := s.store.AddBookToAuthor(ctx, book.AuthorID, book.ID); err != nil {
		return fmt.Errorf("link book to author: %w", err)
	}
	if err := s.store.AddBookToCategories(ctx, book.CategoryIDs, book.ID); err != nil {
		return fmt.Errorf("link book to categories: %w", err)
	}
	return nil
}

// UnlinkBook removes a book from its author's and categories'
// back-reference sets ahead of record deletion.
func (s *Synchronizer) UnlinkBook(ctx context.Context, book *domain.Book) error {
	if err := s.store.RemoveBookFromAuthor(ctx, book.AuthorID, book.ID); err != nil {
		return fmt.Errorf("unlink book from author: %w", err)
	}
	if err := s.store.RemoveBookFromCategories(ctx, book.CategoryIDs, book.ID); err != nil {
		return fmt.Errorf("unlink book from categories: %w", err)
	}
	return nil
}

// SyncUpdate reconciles back-references after a book update. The author
// move is applied first when the reference changed. Category sets are
// only touched when newCategories is non-nil: the diff is pure, so an
// id present before and after is neither removed nor re-added, and an
// explicit empty list unlinks everything.
func (s *Synchronizer) SyncUpdate(ctx context.Context, bookID, oldAuthorID, newAuthorID string, oldCategories, newCategories []string) error {
	if newAuthorID != oldAuthorID {
		if err := s.store.RemoveBookFromAuthor(ctx, oldAuthorID, bookID); err != nil {
			return fmt.Errorf("unlink book from previous author: %w", err)
		}
		if err := s.store.AddBookToAuthor(ctx, newAuthorID, bookID); err != nil {
			return fmt.Errorf("link book to new author: %w", err)
		}
	}

	if newCategories == nil {
		return nil
	}

	toRemove, toAdd := domain.DiffRefs(oldCategories, newCategories)
	if err := s.store.RemoveBookFromCategories(ctx, toRemove, bookID); err != nil {
		return fmt.Errorf("unlink book from removed categories: %w", err)
	}
	if err := s.store.AddBookToCategories(ctx, toAdd, bookID); err != nil {
		return fmt.Errorf("link book to added categories: %w", err)
	}
	return nil
}

// RebuildResult summarizes a reconciliation pass.
type RebuildResult struct {
	Books      int `json:"books"`
	Authors    int `json:"authors"`
	Categories int `json:"categories"`
	Repaired   int `json:"repaired"`
}

// Rebuild recomputes every Author.Books and Category.Books set from the
// canonical forward references on the book records. It repairs drift
// left behind by interrupted multi-write sequences. Records whose sets
// already match are left untouched.
func (s *Synchronizer) Rebuild(ctx context.Context) (*RebuildResult, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string][]string)
	byCategory := make(map[string][]string)
	for _, book := range books {
		byAuthor[book.AuthorID], _ = domain.AddRef(byAuthor[book.AuthorID], book.ID)
		for _, categoryID := range book.CategoryIDs {
			byCategory[categoryID], _ = domain.AddRef(byCategory[categoryID], book.ID)
		}
	}

	result := &RebuildResult{Books: len(books)}

	authors, err := s.store.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	result.Authors = len(authors)
	for _, author := range authors {
		want := byAuthor[author.ID]
		if sameRefSet(author.Books, want) {
			continue
		}
		author.Books = want
		if err := s.store.UpdateAuthor(ctx, author); err != nil {
			return nil, fmt.Errorf("rebuild author %s: %w", author.ID, err)
		}
		result.Repaired++
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	result.Categories = len(categories)
	for _, category := range categories {
		want := byCategory[category.ID]
		if sameRefSet(category.Books, want) {
			continue
		}
		category.Books = want
		if err := s.store.UpdateCategory(ctx, category); err != nil {
			return nil, fmt.Errorf("rebuild category %s: %w", category.ID, err)
		}
		result.Repaired++
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "back-references rebuilt",
		slog.Int("books", result.Books),
		slog.Int("authors", result.Authors),
		slog.Int("categories", result.Categories),
		slog.Int("repaired", result.Repaired),
	)
	return result, nil
}

// sameRefSet compares two reference lists as sets.
func sameRefSet(a, b []string) bool {
	toRemove, toAdd := domain.DiffRefs(a, b)
	return len(toRemove) == 0 && len(toAdd) == 0
}
