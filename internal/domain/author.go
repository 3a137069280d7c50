package domain

// Author is a catalog author. Books holds the denormalized
// back-references to every Book whose author field points here; it is
// maintained by the relationship synchronizer, never written directly
// by handlers.
type Author struct {
	Record
	Name    string   `json:"name"`
	Country string   `json:"country"`
	Books   []string `json:"books"`
}

// AddBook links a book id into the back-reference set. Idempotent.
func (a *Author) AddBook(bookID string) bool {
	books, changed := AddRef(a.Books, bookID)
	a.Books = books
	return changed
}

// RemoveBook unlinks a book id from the back-reference set. Idempotent.
func (a *Author) RemoveBook(bookID string) bool {
	books, changed := RemoveRef(a.Books, bookID)
	a.Books = books
	return changed
}

// HasBooks reports whether any book still references this author.
func (a *Author) HasBooks() bool {
	return len(a.Books) > 0
}
