package service

import (
	"context"

	domainerrors "github.com/openshelf/openshelf-server/internal/errors"
	"github.com/openshelf/openshelf-server/internal/store"
)

// RefValidator checks that forward references on a book resolve to
// existing records before any mutation is applied.
type RefValidator struct {
	store *store.Store
}

// NewRefValidator creates a new reference validator.
func NewRefValidator(st *store.Store) *RefValidator {
	return &RefValidator{store: st}
}

// AuthorExists verifies the author id resolves to a record.
func (v *RefValidator) AuthorExists(ctx context.Context, authorID string) error {
	_, err := v.store.GetAuthor(ctx, authorID)
	if domainerrors.Is(err, store.ErrAuthorNotFound) {
		return domainerrors.NotFoundf("author %s not found", authorID)
	}
	return err
}

// CategoriesExist verifies every id in the list resolves to a record.
// The check is all-or-nothing: the number of records fetched for the
// candidate list must equal the number of ids supplied. The store
// fetches unique ids, so a duplicate in the input inflates the supplied
// count without inflating the fetched count and the whole set fails.
func (v *RefValidator) CategoriesExist(ctx context.Context, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	found, err := v.store.GetCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return err
	}
	if len(found) != len(categoryIDs) {
		return domainerrors.NotFound("one or more categories not found")
	}
	return nil
}
