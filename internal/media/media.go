package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrUnsupportedType = errors.New("only image uploads are accepted")

// ImageStore keeps uploaded product images and returns the public
// reference recorded on the product.
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

type DiskStore struct {
	dir    string
	prefix string
}

func NewDiskStore(dir, publicPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{dir: dir, prefix: strings.TrimSuffix(publicPrefix, "/")}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

// Prefix is the public path prefix without a trailing slash.
func (s *DiskStore) Prefix() string { return s.prefix }

func (s *DiskStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + extension(filename, mediaType)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close image file: %w", err)
	}

	log.WithFields(log.Fields{"file": name, "original": filename}).Debug("image stored")

	return path.Join(s.prefix, name), nil
}

// Delete removes the file behind a reference returned by Save. A missing
// file is not an error.
func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := path.Base(ref)
	if name == "." || name == "/" || path.Join(s.prefix, name) != path.Clean(ref) {
		return fmt.Errorf("delete image: %q is not a stored image", ref)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func extension(filename, mediaType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
