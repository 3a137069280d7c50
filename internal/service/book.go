package service

import (
	"context"
	"log/slog"

	"github.com/openshelf/openshelf-server/internal/domain"
	domainerrors "github.com/openshelf/openshelf-server/internal/errors"
	"github.com/openshelf/openshelf-server/internal/id"
	"github.com/openshelf/openshelf-server/internal/media/attachments"
	"github.com/openshelf/openshelf-server/internal/store"
	"github.com/openshelf/openshelf-server/internal/validation"
)

// BookService orchestrates book operations: reference validation,
// the record write, back-reference synchronization, and the attachment
// lifecycle. Mutations are strictly gated: nothing in the store changes
// until every validation has passed.
type BookService struct {
	store     *store.Store
	files     *attachments.Storage
	refs      *RefValidator
	sync      *Synchronizer
	logger    *slog.Logger
	validator *validation.Validator
}

// NewBookService creates a new book service.
func NewBookService(st *store.Store, files *attachments.Storage, logger *slog.Logger) *BookService {
	return &BookService{
		store:     st,
		files:     files,
		refs:      NewRefValidator(st),
		sync:      NewSynchronizer(st, logger),
		logger:    logger,
		validator: validation.New(),
	}
}

// Upload carries an incoming attachment: the client-supplied name
// (used only for its extension) and the file body.
type Upload struct {
	OriginalName string
	Data         []byte
}

// PopulatedBook is a book with its references resolved to full records.
// A dangling reference resolves to nil (author) or is omitted
// (categories) rather than failing the read.
type PopulatedBook struct {
	domain.Record
	Title      string             `json:"title"`
	Author     *domain.Author     `json:"author"`
	Categories []*domain.Category `json:"categories"`
	Filename   string             `json:"filename,omitempty"`
}

// ListBooks returns all books with references populated.
func (s *BookService) ListBooks(ctx context.Context) ([]*PopulatedBook, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	populated := make([]*PopulatedBook, 0, len(books))
	for _, book := range books {
		p, err := s.populate(ctx, book)
		if err != nil {
			return nil, err
		}
		populated = append(populated, p)
	}
	return populated, nil
}

// GetBook returns a single book with references populated.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*PopulatedBook, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, book)
}

// CreateBookRequest contains fields for creating a book. A nil
// CategoryIDs is equivalent to an empty list on create.
type CreateBookRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=300"`
	AuthorID    string   `json:"author" validate:"required"`
	CategoryIDs []string `json:"categories" validate:"omitempty,dive,required"`
	Upload      *Upload  `json:"-"`
}

// CreateBook validates every reference, then writes the record and
// links it into the author's and categories' back-reference sets. Any
// attachment is stored up front; if a later check or the record write
// fails, the fresh file is removed so a rejected request retains
// nothing. A back-reference failure after the record committed is
// surfaced as a storage-write error; the created book remains.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*PopulatedBook, error) {
	filename, err := s.storeUpload(req.Upload)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, err
	}
	if err := s.refs.AuthorExists(ctx, req.AuthorID); err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, err
	}
	if err := s.refs.CategoriesExist(ctx, req.CategoryIDs); err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, err
	}

	book := &domain.Book{
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		CategoryIDs: domain.DedupeRefs(req.CategoryIDs),
		Filename:    filename,
	}
	if book.CategoryIDs == nil {
		book.CategoryIDs = []string{}
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, domainerrors.StorageWrite(err, "failed to create book")
	}

	if err := s.sync.LinkBook(ctx, book); err != nil {
		// The record is committed and references the attachment;
		// only the back-reference sync is incomplete.
		return nil, domainerrors.StorageWrite(err, "book created but back-reference sync failed")
	}

	return s.populate(ctx, book)
}

// UpdateBookRequest contains fields for updating a book. Every field is
// optional. CategoryIDs distinguishes omitted from empty: nil leaves
// the forward references and their back-references untouched, while an
// explicit empty list clears them.
type UpdateBookRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=300"`
	AuthorID    *string  `json:"author" validate:"omitempty,min=1"`
	CategoryIDs []string `json:"categories" validate:"omitempty,dive,required"`
	Upload      *Upload  `json:"-"`
}

// UpdateBook validates the changed references, rewrites the record,
// then reconciles back-references from the pure diff between the old
// and new forward references. A replacement attachment deletes the
// previous file only after the record write committed; that cleanup is
// best-effort and never fails the update.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*PopulatedBook, error) {
	filename, err := s.storeUpload(req.Upload)
	if err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, err
	}
	if req.AuthorID != nil && *req.AuthorID != book.AuthorID {
		if err := s.refs.AuthorExists(ctx, *req.AuthorID); err != nil {
			s.discardFreshUpload(ctx, filename)
			return nil, err
		}
	}
	if req.CategoryIDs != nil {
		if err := s.refs.CategoriesExist(ctx, req.CategoryIDs); err != nil {
			s.discardFreshUpload(ctx, filename)
			return nil, err
		}
	}

	oldAuthorID := book.AuthorID
	oldCategories := book.CategoryIDs
	previousFile := ""

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.AuthorID != nil {
		book.AuthorID = *req.AuthorID
	}
	if req.CategoryIDs != nil {
		book.CategoryIDs = domain.DedupeRefs(req.CategoryIDs)
		if book.CategoryIDs == nil {
			book.CategoryIDs = []string{}
		}
	}
	if filename != "" {
		previousFile = book.Filename
		book.Filename = filename
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		s.discardFreshUpload(ctx, filename)
		return nil, domainerrors.StorageWrite(err, "failed to update book")
	}

	if err := s.sync.SyncUpdate(ctx, book.ID, oldAuthorID, book.AuthorID, oldCategories, req.CategoryIDs); err != nil {
		return nil, domainerrors.StorageWrite(err, "book updated but back-reference sync failed")
	}

	if previousFile != "" && previousFile != filename {
		s.removeAttachment(ctx, book.ID, previousFile)
	}

	return s.populate(ctx, book)
}

// DeleteBook unlinks the book from its author and categories, removes
// the attachment (best-effort), then deletes the record. A crash
// between steps leaves idempotent work that a retried delete or a
// reconciliation pass finishes.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.sync.UnlinkBook(ctx, book); err != nil {
		return domainerrors.StorageWrite(err, "failed to unlink book back-references")
	}

	if book.HasAttachment() {
		s.removeAttachment(ctx, book.ID, book.Filename)
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return domainerrors.StorageWrite(err, "failed to delete book record")
	}
	return nil
}

// GetBookFile returns the stored filename and body of a book's
// attachment.
func (s *BookService) GetBookFile(ctx context.Context, bookID string) (string, []byte, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return "", nil, err
	}
	if !book.HasAttachment() {
		return "", nil, domainerrors.NotFoundf("book %s has no attachment", bookID)
	}

	data, err := s.files.Get(book.Filename)
	if err != nil {
		return "", nil, domainerrors.NotFoundf("attachment for book %s not found", bookID)
	}
	return book.Filename, data, nil
}

// Reconcile rebuilds every back-reference set from the canonical
// forward references.
func (s *BookService) Reconcile(ctx context.Context) (*RebuildResult, error) {
	return s.sync.Rebuild(ctx)
}

// populate resolves a book's references to full records.
func (s *BookService) populate(ctx context.Context, book *domain.Book) (*PopulatedBook, error) {
	p := &PopulatedBook{
		Record:     book.Record,
		Title:      book.Title,
		Categories: []*domain.Category{},
		Filename:   book.Filename,
	}

	author, err := s.store.GetAuthor(ctx, book.AuthorID)
	if err != nil && !domainerrors.Is(err, store.ErrAuthorNotFound) {
		return nil, err
	}
	p.Author = author

	if len(book.CategoryIDs) > 0 {
		categories, err := s.store.GetCategoriesByIDs(ctx, book.CategoryIDs)
		if err != nil {
			return nil, err
		}
		p.Categories = categories
	}
	return p, nil
}

// storeUpload writes an incoming attachment under a generated name
// before any validation runs, mirroring upload middleware that lands
// the file ahead of the handler. Returns the stored name, or "" when
// there is no upload.
func (s *BookService) storeUpload(upload *Upload) (string, error) {
	if upload == nil {
		return "", nil
	}
	if len(upload.Data) == 0 {
		return "", domainerrors.Validation("uploaded file is empty")
	}

	filename := attachments.GenerateName(upload.OriginalName)
	if err := s.files.Save(filename, upload.Data); err != nil {
		return "", domainerrors.StorageWrite(err, "failed to store uploaded file")
	}
	return filename, nil
}

// discardFreshUpload removes a file stored for a request that was
// subsequently rejected, so failed mutations retain nothing. Failures
// are logged, never propagated.
func (s *BookService) discardFreshUpload(ctx context.Context, filename string) {
	if filename == "" {
		return
	}
	s.removeAttachment(ctx, "", filename)
}

// removeAttachment best-effort deletes an attachment file. Existence is
// checked first; a missing file is silently fine, and a failed removal
// is logged as a cleanup problem without affecting the caller.
func (s *BookService) removeAttachment(ctx context.Context, bookID, filename string) {
	if !s.files.Exists(filename) {
		return
	}
	if err := s.files.Delete(filename); err != nil {
		cleanupErr := domainerrors.AttachmentCleanup(err, "failed to remove attachment file")
		s.logger.LogAttrs(ctx, slog.LevelWarn, "attachment cleanup failed",
			slog.String("book", bookID),
			slog.String("filename", filename),
			slog.String("error", cleanupErr.Error()),
		)
	}
}
