package domain

// Book is a catalog book. AuthorID and CategoryIDs are the canonical
// forward references; the matching back-reference sets on Author and
// Category are derived from them. Filename names an attachment in
// upload storage, relative to the attachment root, empty when the book
// has none.
type Book struct {
	Record
	Title       string   `json:"title"`
	AuthorID    string   `json:"author"`
	CategoryIDs []string `json:"categories"`
	Filename    string   `json:"filename,omitempty"`
}

// HasAttachment reports whether the book references an uploaded file.
func (b *Book) HasAttachment() bool {
	return b.Filename != ""
}

// InCategory reports whether the book references the given category.
func (b *Book) InCategory(categoryID string) bool {
	return ContainsRef(b.CategoryIDs, categoryID)
}
