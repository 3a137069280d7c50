package service

import (
	"context"
	"log/slog"

	"github.com/openshelf/openshelf-server/internal/domain"
	"github.com/openshelf/openshelf-server/internal/id"
	"github.com/openshelf/openshelf-server/internal/store"
	"github.com/openshelf/openshelf-server/internal/validation"
)

// CategoryService orchestrates category operations.
type CategoryService struct {
	store     *store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewCategoryService creates a new category service.
func NewCategoryService(st *store.Store, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListCategories returns all categories.
func (s *CategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// GetCategory returns a single category.
func (s *CategoryService) GetCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	return s.store.GetCategory(ctx, categoryID)
}

// CreateCategoryRequest contains fields for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateCategory creates a new category with an empty back-reference set.
func (s *CategoryService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*domain.Category, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	categoryID, err := id.Generate("category")
	if err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:  req.Name,
		Books: []string{},
	}
	category.ID = categoryID
	category.InitTimestamps()

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategoryRequest contains fields for updating a category.
type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// UpdateCategory updates a category's own fields.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, req UpdateCategoryRequest) (*domain.Category, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category. The category id is first unlinked
// from every book whose forward references mention it, so no book is
// left pointing at a missing record. Each unlink is its own idempotent
// write; a retried delete converges.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return err
	}

	books, err := s.store.ListBooksByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	for _, book := range books {
		if err := s.store.RemoveCategoryFromBook(ctx, book.ID, categoryID); err != nil {
			return err
		}
	}
	if len(books) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "category unlinked from books",
			slog.String("id", categoryID),
			slog.Int("books", len(books)),
		)
	}

	return s.store.DeleteCategory(ctx, categoryID)
}
