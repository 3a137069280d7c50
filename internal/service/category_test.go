package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/openshelf/openshelf-server/internal/errors"
	"github.com/openshelf/openshelf-server/internal/store"
)

func TestCategoryService_CreateAndUpdate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	category, err := env.categories.CreateCategory(ctx, CreateCategoryRequest{Name: "Fiction"})
	require.NoError(t, err)
	assert.NotEmpty(t, category.ID)

	newName := "Literary Fiction"
	updated, err := env.categories.UpdateCategory(ctx, category.ID, UpdateCategoryRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
}

func TestCategoryService_CreateRequiresName(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.categories.CreateCategory(context.Background(), CreateCategoryRequest{})
	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCategoryService_DeleteCascadesUnlink(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	author := env.mustAuthor(t, "A")
	fiction := env.mustCategory(t, "Fiction")
	scifi := env.mustCategory(t, "Sci-Fi")
	book := env.mustBook(t, "B", author.ID, fiction.ID, scifi.ID)

	require.NoError(t, env.categories.DeleteCategory(ctx, fiction.ID))

	_, err := env.categories.GetCategory(ctx, fiction.ID)
	require.ErrorIs(t, err, store.ErrCategoryNotFound)

	// The book's forward references no longer mention the deleted id.
	got, err := env.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{scifi.ID}, got.CategoryIDs)

	// The surviving category is untouched.
	gotScifi, err := env.store.GetCategory(ctx, scifi.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{book.ID}, gotScifi.Books)
}

func TestCategoryService_DeleteMissing(t *testing.T) {
	env := setupTestEnv(t)

	err := env.categories.DeleteCategory(context.Background(), "category-missing")
	require.ErrorIs(t, err, store.ErrCategoryNotFound)
}
