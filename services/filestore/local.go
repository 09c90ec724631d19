package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	allowedExt = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

	ErrFileType = core.NewFieldError("file", "only pdf, png and jpg files are accepted")
	ErrBadKey   = core.NewFieldError("file", "invalid file key")
)

// MaxFileSize caps a single upload (10 MiB).
const MaxFileSize = 10 << 20

type localStore struct {
	root string
}

var _ core.FileStore = (*localStore)(nil)

// NewLocalStore stores files under root, creating it if needed.
func NewLocalStore(root string) (core.FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload dir %q", root)
	}
	return &localStore{root: root}, nil
}

// NewFromConfig resolves conf.Storage.UploadDir against the work dir.
func NewFromConfig(conf *core.Config) (core.FileStore, error) {
	dir := conf.Storage.UploadDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(conf.WorkDir, dir)
	}
	return NewLocalStore(dir)
}

// Save writes r under folder with a fresh uuid name, keeping filename's extension.
func (s *localStore) Save(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrFileType
	}
	folder = path.Clean("/" + folder)[1:]
	if folder == "" || strings.Contains(folder, "..") {
		return "", ErrBadKey
	}
	key := path.Join(folder, uuid.NewString()+ext)

	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(folder)), 0o755); err != nil {
		return "", errors.Wrap(err, "creating folder")
	}
	f, err := os.Create(s.path(key))
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err == nil && n > MaxFileSize {
		err = core.NewFieldError("file", "file exceeds 10MB")
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(s.path(key))
		return "", errors.Wrap(err, "writing file")
	}
	return key, nil
}

func (s *localStore) Open(key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrBadKey
	}
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, core.ErrFileNotFound
	}
	return f, errors.Wrap(err, "opening file")
}

func (s *localStore) Remove(key string) error {
	if !validKey(key) {
		return ErrBadKey
	}
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return core.ErrFileNotFound
	}
	return errors.Wrap(err, "removing file")
}

func (s *localStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func validKey(key string) bool {
	return key != "" && !strings.HasPrefix(key, "/") && path.Clean(key) == key && !strings.Contains(key, "..")
}
