package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"yatube/app/config"
	"yatube/app/logging"
	"yatube/app/repositories"
	"yatube/app/storage"

	"github.com/pkg/errors"
)

// loadConfig reads the environment and applies the --db override.
func loadConfig(dbPath string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		return nil, errors.Wrap(err, "initializing logger")
	}
	return cfg, nil
}

func openRepository(cfg *config.Config) (*repositories.Repository, error) {
	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}
	return repositories.NewRepository(cfg.DBPath, logging.Logger)
}

func openMedia(cfg *config.Config) (storage.Storage, error) {
	switch cfg.MediaBackend {
	case "s3":
		return storage.NewS3Storage(cfg.S3Region, cfg.S3Bucket)
	default:
		return storage.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
	}
}

// dbExists reports whether path holds a database.
func dbExists(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// confirm asks a yes/no question and defaults to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}
