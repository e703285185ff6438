package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrNotFound        = errors.New("file not found")
)

// AllowedTypes are the content types accepted for receipts.
var AllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

// Object describes a stored file.
type Object struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store keeps uploaded files on local disk under uuid-based names.
type Store struct {
	dir     string
	baseURL string
	maxSize int64
}

func New(dir, baseURL string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}, nil
}

// Put stores the contents of r after checking its size and sniffed content type. The
// client-supplied name is not used for storage.
func (s *Store) Put(ctx context.Context, r io.Reader) (*Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !allowed(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	name := uuid.NewString() + mtype.Extension()
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	return &Object{
		Name:        name,
		URL:         s.baseURL + "/" + name,
		ContentType: baseType(mtype.String()),
		Size:        int64(len(data)),
	}, nil
}

// Open returns a stored file and its content type.
func (s *Store) Open(name string) (*os.File, string, error) {
	if !validName(name) {
		return nil, "", ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", err
	}
	return f, baseType(mimetype.Detect(head[:n]).String()), nil
}

func allowed(m *mimetype.MIME) bool {
	for _, t := range AllowedTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		return ct[:i]
	}
	return ct
}

// validName accepts only names Put could have produced.
func validName(name string) bool {
	if name != filepath.Base(name) {
		return false
	}
	ext := filepath.Ext(name)
	if _, err := uuid.Parse(strings.TrimSuffix(name, ext)); err != nil {
		return false
	}
	return slices.Contains([]string{".jpg", ".png", ".gif", ".webp", ".pdf"}, ext)
}
