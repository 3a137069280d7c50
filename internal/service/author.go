// Package service orchestrates catalog operations: entity CRUD, the
// reference checks gating book mutations, back-reference
// synchronization, and the attachment lifecycle.
package service

import (
	"context"
	"log/slog"

	"github.com/openshelf/openshelf-server/internal/domain"
	domainerrors "github.com/openshelf/openshelf-server/internal/errors"
	"github.com/openshelf/openshelf-server/internal/id"
	"github.com/openshelf/openshelf-server/internal/store"
	"github.com/openshelf/openshelf-server/internal/validation"
)

// AuthorService orchestrates author operations.
type AuthorService struct {
	store     *store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewAuthorService creates a new author service.
func NewAuthorService(st *store.Store, logger *slog.Logger) *AuthorService {
	return &AuthorService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListAuthors returns all authors.
func (s *AuthorService) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	return s.store.ListAuthors(ctx)
}

// GetAuthor returns a single author.
func (s *AuthorService) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	return s.store.GetAuthor(ctx, authorID)
}

// CreateAuthorRequest contains fields for creating an author.
type CreateAuthorRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Country string `json:"country" validate:"max=100"`
}

// CreateAuthor creates a new author with an empty back-reference set.
func (s *AuthorService) CreateAuthor(ctx context.Context, req CreateAuthorRequest) (*domain.Author, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	authorID, err := id.Generate("author")
	if err != nil {
		return nil, err
	}

	author := &domain.Author{
		Name:    req.Name,
		Country: req.Country,
		Books:   []string{},
	}
	author.ID = authorID
	author.InitTimestamps()

	if err := s.store.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// UpdateAuthorRequest contains fields for updating an author.
// The back-reference set is not updatable through this path.
type UpdateAuthorRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Country *string `json:"country" validate:"omitempty,max=100"`
}

// UpdateAuthor updates an author's own fields.
func (s *AuthorService) UpdateAuthor(ctx context.Context, authorID string, req UpdateAuthorRequest) (*domain.Author, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	author, err := s.store.GetAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		author.Name = *req.Name
	}
	if req.Country != nil {
		author.Country = *req.Country
	}

	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// DeleteAuthor removes an author. Deletion is refused while any book
// still references the author: cascade-nulling would leave books with
// an empty required reference, so the books must be reassigned or
// deleted first.
func (s *AuthorService) DeleteAuthor(ctx context.Context, authorID string) error {
	author, err := s.store.GetAuthor(ctx, authorID)
	if err != nil {
		return err
	}

	if author.HasBooks() {
		return domainerrors.Conflictf("author %s is referenced by %d book(s)", authorID, len(author.Books))
	}

	return s.store.DeleteAuthor(ctx, authorID)
}
