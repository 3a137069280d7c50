package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/openshelf/openshelf-server/internal/domain"
	"github.com/openshelf/openshelf-server/internal/service"
)

func (s *Server) registerAuthorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAuthors",
		Method:      http.MethodGet,
		Path:        "/api/v1/authors",
		Summary:     "List authors",
		Tags:        []string{"Authors"},
	}, s.handleListAuthors)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createAuthor",
		Method:        http.MethodPost,
		Path:          "/api/v1/authors",
		Summary:       "Create author",
		Tags:          []string{"Authors"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateAuthor)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAuthor",
		Method:      http.MethodGet,
		Path:        "/api/v1/authors/{id}",
		Summary:     "Get author",
		Tags:        []string{"Authors"},
	}, s.handleGetAuthor)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateAuthor",
		Method:      http.MethodPatch,
		Path:        "/api/v1/authors/{id}",
		Summary:     "Update author",
		Tags:        []string{"Authors"},
	}, s.handleUpdateAuthor)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAuthor",
		Method:      http.MethodDelete,
		Path:        "/api/v1/authors/{id}",
		Summary:     "Delete author",
		Description: "Deletes an author. Refused while any book references the author.",
		Tags:        []string{"Authors"},
	}, s.handleDeleteAuthor)
}

// === DTOs ===

type AuthorResponse struct {
	ID        string    `json:"id" doc:"Author ID"`
	Name      string    `json:"name" doc:"Author name"`
	Country   string    `json:"country,omitempty" doc:"Country"`
	Books     []string  `json:"books" doc:"IDs of books referencing this author"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

type ListAuthorsResponse struct {
	Authors []AuthorResponse `json:"authors" doc:"List of authors"`
}

type ListAuthorsOutput struct {
	Body ListAuthorsResponse
}

type CreateAuthorRequest struct {
	Name    string `json:"name" doc:"Author name"`
	Country string `json:"country,omitempty" doc:"Country"`
}

type CreateAuthorInput struct {
	Body CreateAuthorRequest
}

type AuthorOutput struct {
	Body AuthorResponse
}

type GetAuthorInput struct {
	ID string `path:"id" doc:"Author ID"`
}

type UpdateAuthorRequest struct {
	Name    *string `json:"name,omitempty" doc:"Author name"`
	Country *string `json:"country,omitempty" doc:"Country"`
}

type UpdateAuthorInput struct {
	ID   string `path:"id" doc:"Author ID"`
	Body UpdateAuthorRequest
}

type DeleteAuthorInput struct {
	ID string `path:"id" doc:"Author ID"`
}

// === Handlers ===

func (s *Server) handleListAuthors(ctx context.Context, _ *struct{}) (*ListAuthorsOutput, error) {
	authors, err := s.services.Author.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]AuthorResponse, len(authors))
	for i, a := range authors {
		resp[i] = mapAuthorResponse(a)
	}

	return &ListAuthorsOutput{Body: ListAuthorsResponse{Authors: resp}}, nil
}

func (s *Server) handleCreateAuthor(ctx context.Context, input *CreateAuthorInput) (*AuthorOutput, error) {
	author, err := s.services.Author.CreateAuthor(ctx, service.CreateAuthorRequest{
		Name:    input.Body.Name,
		Country: input.Body.Country,
	})
	if err != nil {
		return nil, err
	}

	return &AuthorOutput{Body: mapAuthorResponse(author)}, nil
}

func (s *Server) handleGetAuthor(ctx context.Context, input *GetAuthorInput) (*AuthorOutput, error) {
	author, err := s.services.Author.GetAuthor(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &AuthorOutput{Body: mapAuthorResponse(author)}, nil
}

func (s *Server) handleUpdateAuthor(ctx context.Context, input *UpdateAuthorInput) (*AuthorOutput, error) {
	author, err := s.services.Author.UpdateAuthor(ctx, input.ID, service.UpdateAuthorRequest{
		Name:    input.Body.Name,
		Country: input.Body.Country,
	})
	if err != nil {
		return nil, err
	}

	return &AuthorOutput{Body: mapAuthorResponse(author)}, nil
}

func (s *Server) handleDeleteAuthor(ctx context.Context, input *DeleteAuthorInput) (*MessageOutput, error) {
	if err := s.services.Author.DeleteAuthor(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Author deleted"}}, nil
}

// === Mappers ===

func mapAuthorResponse(a *domain.Author) AuthorResponse {
	books := a.Books
	if books == nil {
		books = []string{}
	}
	return AuthorResponse{
		ID:        a.ID,
		Name:      a.Name,
		Country:   a.Country,
		Books:     books,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
