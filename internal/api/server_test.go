package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf-server/internal/config"
	"github.com/openshelf/openshelf-server/internal/media/attachments"
	"github.com/openshelf/openshelf-server/internal/service"
	"github.com/openshelf/openshelf-server/internal/store"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	files, err := attachments.NewStorage(filepath.Join(tmpDir, "uploads"))
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSOrigins: []string{"*"},
		},
	}

	services := &Services{
		Author:   service.NewAuthorService(st, logger),
		Category: service.NewCategoryService(st, logger),
		Book:     service.NewBookService(st, files, logger),
	}

	return NewServer(cfg, st, services, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func createTestAuthor(t *testing.T, s *Server, name string) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/v1/authors", map[string]string{
		"name":    name,
		"country": "CA",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthorResponse
	decodeBody(t, rec, &resp)
	return resp.ID
}

func createTestCategory(t *testing.T, s *Server, name string) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/v1/categories", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CategoryResponse
	decodeBody(t, rec, &resp)
	return resp.ID
}

func postBookMultipart(t *testing.T, s *Server, method, path string, fields map[string]string, filename string, fileBody []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthCheck(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestServer_AuthorCRUD(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "N. K. Jemisin")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/authors/"+authorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got AuthorResponse
	decodeBody(t, rec, &got)
	assert.Equal(t, "N. K. Jemisin", got.Name)
	assert.Empty(t, got.Books)

	rec = doJSON(t, s, http.MethodPatch, "/api/v1/authors/"+authorID, map[string]string{"country": "US"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Equal(t, "US", got.Country)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/authors/"+authorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/authors/"+authorID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_AuthorValidationError(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/authors", map[string]string{"country": "US"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestServer_CreateBookMultipart(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "A")
	categoryID := createTestCategory(t, s, "Fiction")

	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":      "The Fifth Season",
		"author":     authorID,
		"categories": `["` + categoryID + `"]`,
	}, "manuscript.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var book BookResponse
	decodeBody(t, rec, &book)
	assert.Equal(t, "The Fifth Season", book.Title)
	require.NotNil(t, book.Author)
	assert.Equal(t, authorID, book.Author.ID)
	require.Len(t, book.Categories, 1)
	assert.NotEmpty(t, book.Filename)

	// The attachment can be fetched back.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/books/"+book.ID+"/file", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	// The author now carries the back-reference.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/authors/"+authorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var author AuthorResponse
	decodeBody(t, rec, &author)
	assert.Equal(t, []string{book.ID}, author.Books)
}

func TestServer_CreateBookMissingAuthor(t *testing.T) {
	s := setupTestServer(t)

	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":  "Orphan",
		"author": "author-missing",
	}, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestServer_UpdateBookClearsCategories(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "A")
	categoryID := createTestCategory(t, s, "Fiction")

	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":      "B",
		"author":     authorID,
		"categories": `["` + categoryID + `"]`,
	}, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var book BookResponse
	decodeBody(t, rec, &book)

	rec = postBookMultipart(t, s, http.MethodPatch, "/api/v1/books/"+book.ID, map[string]string{
		"categories": `[]`,
	}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &book)
	assert.Empty(t, book.Categories)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/categories/"+categoryID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var category CategoryResponse
	decodeBody(t, rec, &category)
	assert.Empty(t, category.Books)
}

func TestServer_UpdateBookWithoutCategoriesKeepsThem(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "A")
	categoryID := createTestCategory(t, s, "Fiction")

	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":      "B",
		"author":     authorID,
		"categories": `["` + categoryID + `"]`,
	}, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var book BookResponse
	decodeBody(t, rec, &book)

	rec = postBookMultipart(t, s, http.MethodPatch, "/api/v1/books/"+book.ID, map[string]string{
		"title": "B, Second Edition",
	}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &book)
	assert.Equal(t, "B, Second Edition", book.Title)
	assert.Len(t, book.Categories, 1)
}

func TestServer_DeleteAuthorWithBooksConflicts(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "A")

	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":  "B",
		"author": authorID,
	}, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/authors/"+authorID, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFLICT")
}

func TestServer_DeleteBookRemovesEverything(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "A")
	categoryID := createTestCategory(t, s, "Fiction")

	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":      "B",
		"author":     authorID,
		"categories": `["` + categoryID + `"]`,
	}, "b.epub", []byte("zip"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var book BookResponse
	decodeBody(t, rec, &book)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/books/"+book.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/books/"+book.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/authors/"+authorID, nil)
	var author AuthorResponse
	decodeBody(t, rec, &author)
	assert.Empty(t, author.Books)
}

func TestServer_Reconcile(t *testing.T) {
	s := setupTestServer(t)

	authorID := createTestAuthor(t, s, "A")
	rec := postBookMultipart(t, s, http.MethodPost, "/api/v1/books", map[string]string{
		"title":  "B",
		"author": authorID,
	}, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result ReconcileResponse
	decodeBody(t, rec, &result)
	assert.Equal(t, 1, result.Books)
	assert.Equal(t, 0, result.Repaired)
}

func TestServer_NotFoundErrorShape(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/books/book-missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.True(t, strings.Contains(apiErr.Message, "not found"))
}
