package domain

// Category is a catalog category. Books holds the denormalized
// back-references to every Book whose categories field contains this
// category, maintained by the relationship synchronizer.
type Category struct {
	Record
	Name  string   `json:"name"`
	Books []string `json:"books"`
}

// AddBook links a book id into the back-reference set. Idempotent.
func (c *Category) AddBook(bookID string) bool {
	books, changed := AddRef(c.Books, bookID)
	c.Books = books
	return changed
}

// RemoveBook unlinks a book id from the back-reference set. Idempotent.
func (c *Category) RemoveBook(bookID string) bool {
	books, changed := RemoveRef(c.Books, bookID)
	c.Books = books
	return changed
}
