package imagerepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivamsingh4838/bookswap/util/apperr"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Store interface {
	// Save writes the upload and returns its opaque file name.
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
	// Remove deletes a stored file; a missing file is not an error.
	Remove(name string) error
}

type store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func New(dir string, maxBytes int64) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *store) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", apperr.Validation("image is required")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", apperr.Validation("only image files are allowed")
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", apperr.Validation("image too large")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	var r io.Reader = src
	if s.maxBytes > 0 {
		// Size on the header is client supplied.
		r = io.LimitReader(src, s.maxBytes+1)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = apperr.Validation("image too large")
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return name, nil
}

func (s *store) Remove(name string) error {
	if name == "" {
		return nil
	}
	// only bare names produced by Save are accepted
	if name != filepath.Base(name) || name == "." || name == ".." {
		return apperr.Validation("invalid image name")
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
