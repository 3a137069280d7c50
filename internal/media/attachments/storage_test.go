package attachments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewStorage_EmptyPath(t *testing.T) {
	_, err := NewStorage("")
	require.Error(t, err)
}

func TestStorage_SaveGetDelete(t *testing.T) {
	s := setupTestStorage(t)

	data := []byte("%PDF-1.4 fake book body")
	require.NoError(t, s.Save("abc123.pdf", data))
	assert.True(t, s.Exists("abc123.pdf"))

	got, err := s.Get("abc123.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.Delete("abc123.pdf"))
	assert.False(t, s.Exists("abc123.pdf"))
}

func TestStorage_DeleteMissingIsNoop(t *testing.T) {
	s := setupTestStorage(t)

	require.NoError(t, s.Delete("never-saved.pdf"))
}

func TestStorage_RejectsPathTraversal(t *testing.T) {
	s := setupTestStorage(t)

	err := s.Save("../escape.pdf", []byte("x"))
	require.Error(t, err)

	_, err = s.Get("nested/evil.pdf")
	require.Error(t, err)

	assert.False(t, s.Exists("../../etc/passwd"))
}

func TestStorage_GetMissing(t *testing.T) {
	s := setupTestStorage(t)

	_, err := s.Get("missing.epub")
	require.Error(t, err)
}

func TestGenerateName(t *testing.T) {
	name := GenerateName("My Great Novel.PDF")
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotContains(t, name, " ")

	// No extension on the original means none on the stored name.
	bare := GenerateName("README")
	assert.NotContains(t, bare, ".")

	// Names are unique per call.
	assert.NotEqual(t, GenerateName("a.epub"), GenerateName("a.epub"))
}
