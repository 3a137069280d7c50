package api

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	domainerrors "github.com/openshelf/openshelf-server/internal/errors"
	"github.com/openshelf/openshelf-server/internal/service"
)

// maxUploadSize bounds the in-memory portion of multipart parsing.
const maxUploadSize = 64 << 20 // 64 MiB

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns all books with author and category records populated",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Unlinks back-references, removes the attachment, and deletes the record",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)

	// Multipart create/update and file streaming use chi directly;
	// uploads do not fit huma's typed bodies.
	s.router.Post("/api/v1/books", s.handleCreateBookMultipart)
	s.router.Patch("/api/v1/books/{id}", s.handleUpdateBookMultipart)
	s.router.Get("/api/v1/books/{id}/file", s.handleServeBookFile)
}

// === DTOs ===

type BookResponse struct {
	ID         string             `json:"id" doc:"Book ID"`
	Title      string             `json:"title" doc:"Book title"`
	Author     *AuthorResponse    `json:"author" doc:"Populated author record"`
	Categories []CategoryResponse `json:"categories" doc:"Populated category records"`
	Filename   string             `json:"filename,omitempty" doc:"Stored attachment filename"`
	CreatedAt  time.Time          `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time          `json:"updated_at" doc:"Last update time"`
}

type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"List of books"`
}

type ListBooksOutput struct {
	Body ListBooksResponse
}

type BookOutput struct {
	Body BookResponse
}

type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

type DeleteBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = mapBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: resp}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*MessageOutput, error) {
	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleCreateBookMultipart(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseBookForm(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	categoryIDs := form.categories
	if categoryIDs == nil {
		categoryIDs = []string{}
	}

	book, err := s.services.Book.CreateBook(r.Context(), service.CreateBookRequest{
		Title:       form.value("title"),
		AuthorID:    form.value("author"),
		CategoryIDs: categoryIDs,
		Upload:      form.upload,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, mapBookResponse(book))
}

func (s *Server) handleUpdateBookMultipart(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	form, err := s.parseBookForm(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := service.UpdateBookRequest{
		Title:       form.optional("title"),
		AuthorID:    form.optional("author"),
		CategoryIDs: form.categories,
		Upload:      form.upload,
	}

	book, err := s.services.Book.UpdateBook(r.Context(), bookID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, mapBookResponse(book))
}

func (s *Server) handleServeBookFile(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	filename, data, err := s.services.Book.GetBookFile(r.Context(), bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// === Multipart parsing ===

// bookForm is the decoded multipart payload of a book create or update.
// categories stays nil when the key was absent, which the service layer
// treats as "leave forward references untouched".
type bookForm struct {
	values     map[string][]string
	categories []string
	upload     *service.Upload
}

func (f *bookForm) value(key string) string {
	if vals := f.values[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// optional returns a pointer to the field value, or nil when the key
// was not part of the form.
func (f *bookForm) optional(key string) *string {
	vals, ok := f.values[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

func (s *Server) parseBookForm(r *http.Request) (*bookForm, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, domainerrors.Validation("invalid multipart form").WithCause(err)
	}

	form := &bookForm{values: r.MultipartForm.Value}

	if vals, ok := r.MultipartForm.Value["categories"]; ok {
		categories, err := parseCategoryValues(vals)
		if err != nil {
			return nil, err
		}
		form.categories = categories
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return nil, domainerrors.Validation("failed to read uploaded file").WithCause(readErr)
		}
		form.upload = &service.Upload{
			OriginalName: header.Filename,
			Data:         data,
		}
	case err == http.ErrMissingFile:
		// No upload in this request.
	default:
		return nil, domainerrors.Validation("invalid file field").WithCause(err)
	}

	return form, nil
}

// parseCategoryValues accepts the category list either as a single JSON
// array value or as repeated form fields. The result is never nil, so a
// present key always means an explicit list.
func parseCategoryValues(vals []string) ([]string, error) {
	if len(vals) == 1 && strings.HasPrefix(strings.TrimSpace(vals[0]), "[") {
		var ids []string
		if err := json.Unmarshal([]byte(vals[0]), &ids); err != nil {
			return nil, domainerrors.Validation("categories must be a JSON array of ids").WithCause(err)
		}
		if ids == nil {
			ids = []string{}
		}
		return ids, nil
	}

	ids := make([]string, 0, len(vals))
	for _, v := range vals {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids, nil
}

// === Mappers ===

func mapBookResponse(b *service.PopulatedBook) BookResponse {
	resp := BookResponse{
		ID:         b.ID,
		Title:      b.Title,
		Categories: make([]CategoryResponse, len(b.Categories)),
		Filename:   b.Filename,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}

	if b.Author != nil {
		author := mapAuthorResponse(b.Author)
		resp.Author = &author
	}
	for i, c := range b.Categories {
		resp.Categories[i] = mapCategoryResponse(c)
	}
	return resp
}
