package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddRef_Idempotent(t *testing.T) {
	refs, changed := AddRef(nil, "book-1")
	assert.True(t, changed)
	assert.Equal(t, []string{"book-1"}, refs)

	// Adding again never produces a duplicate.
	refs, changed = AddRef(refs, "book-1")
	assert.False(t, changed)
	assert.Equal(t, []string{"book-1"}, refs)
}

func TestRemoveRef_Idempotent(t *testing.T) {
	refs := []string{"book-1", "book-2", "book-3"}

	refs, changed := RemoveRef(refs, "book-2")
	assert.True(t, changed)
	assert.Equal(t, []string{"book-1", "book-3"}, refs)

	// Removing an absent id is a no-op, not an error.
	refs, changed = RemoveRef(refs, "book-2")
	assert.False(t, changed)
	assert.Equal(t, []string{"book-1", "book-3"}, refs)
}

func TestRemoveRef_PreservesOrder(t *testing.T) {
	refs, _ := RemoveRef([]string{"a", "b", "c", "d"}, "a")
	assert.Equal(t, []string{"b", "c", "d"}, refs)
}

func TestDiffRefs_PureDiff(t *testing.T) {
	// {X, Y} -> {Y, Z}: X removed, Z added, Y untouched.
	toRemove, toAdd := DiffRefs([]string{"cat-x", "cat-y"}, []string{"cat-y", "cat-z"})
	assert.Equal(t, []string{"cat-x"}, toRemove)
	assert.Equal(t, []string{"cat-z"}, toAdd)
}

func TestDiffRefs_NoChange(t *testing.T) {
	toRemove, toAdd := DiffRefs([]string{"a", "b"}, []string{"b", "a"})
	assert.Empty(t, toRemove)
	assert.Empty(t, toAdd)
}

func TestDiffRefs_EmptyNew(t *testing.T) {
	toRemove, toAdd := DiffRefs([]string{"a", "b"}, nil)
	assert.Equal(t, []string{"a", "b"}, toRemove)
	assert.Empty(t, toAdd)
}

func TestDiffRefs_EmptyOld(t *testing.T) {
	toRemove, toAdd := DiffRefs(nil, []string{"a"})
	assert.Empty(t, toRemove)
	assert.Equal(t, []string{"a"}, toAdd)
}

func TestDiffRefs_CollapsesDuplicates(t *testing.T) {
	toRemove, toAdd := DiffRefs([]string{"a", "a"}, []string{"b", "b"})
	assert.Equal(t, []string{"a"}, toRemove)
	assert.Equal(t, []string{"b"}, toAdd)
}

func TestDedupeRefs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DedupeRefs([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, DedupeRefs(nil))
}

func TestAuthor_AddRemoveBook(t *testing.T) {
	a := &Author{Name: "Le Guin", Country: "US"}

	assert.True(t, a.AddBook("book-1"))
	assert.False(t, a.AddBook("book-1"))
	assert.Equal(t, []string{"book-1"}, a.Books)
	assert.True(t, a.HasBooks())

	assert.True(t, a.RemoveBook("book-1"))
	assert.False(t, a.RemoveBook("book-1"))
	assert.False(t, a.HasBooks())
}

func TestBook_InCategory(t *testing.T) {
	b := &Book{Title: "The Dispossessed", CategoryIDs: []string{"cat-1"}}
	assert.True(t, b.InCategory("cat-1"))
	assert.False(t, b.InCategory("cat-2"))
	assert.False(t, b.HasAttachment())
}
