package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func newStore(t *testing.T, max int64) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "http://localhost:3000/files/", max)
	require.NoError(t, err)
	return s
}

func TestPutAndOpen(t *testing.T) {
	s := newStore(t, 1<<20)

	obj, err := s.Put(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.Equal(t, "image/png", obj.ContentType)
	assert.True(t, strings.HasSuffix(obj.Name, ".png"))
	assert.Equal(t, "http://localhost:3000/files/"+obj.Name, obj.URL)
	assert.Equal(t, int64(len(pngHeader)), obj.Size)

	f, ct, err := s.Open(obj.Name)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "image/png", ct)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)
}

func TestPutPDF(t *testing.T) {
	s := newStore(t, 1<<20)
	obj, err := s.Put(context.Background(), bytes.NewReader(pdfHeader))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.True(t, strings.HasSuffix(obj.Name, ".pdf"))
}

func TestPutRejectsUnsupportedType(t *testing.T) {
	s := newStore(t, 1<<20)
	_, err := s.Put(context.Background(), strings.NewReader("#!/bin/sh\necho hello\n"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPutRejectsOversize(t *testing.T) {
	s := newStore(t, int64(len(pngHeader)-1))
	_, err := s.Put(context.Background(), bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestOpenRejectsForeignNames(t *testing.T) {
	s := newStore(t, 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "notes.txt"), []byte("x"), 0o644))

	for _, name := range []string{"notes.txt", "../etc/passwd", "", "3f1e0a2c-6b0d-4a36-9d8f-3f7a1e2b4c5d.png"} {
		_, _, err := s.Open(name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}
