package storage

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/app/logging"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LocalStorage keeps files under a directory served at baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Wrap(err, "creating media directory")
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}, nil
}

// Root is the directory files are written to.
func (s *LocalStorage) Root() string {
	return s.basePath
}

func (s *LocalStorage) fullPath(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", errors.Errorf("invalid media name %q", name)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Save(name, contentType string, data []byte) (string, error) {
	fullPath, err := s.fullPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", errors.Wrap(err, "creating directory")
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", errors.Wrap(err, "saving file")
	}

	logging.Logger.Info("media saved", zap.String("fullPath", fullPath), zap.String("contentType", contentType))
	return name, nil
}

func (s *LocalStorage) Delete(name string) error {
	fullPath, err := s.fullPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

func (s *LocalStorage) URL(name string) string {
	return strings.TrimSuffix(s.baseURL, "/") + "/" + strings.TrimPrefix(name, "/")
}
