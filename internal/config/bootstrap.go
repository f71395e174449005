package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

const FileName = "tracker.yml"

// EnsureUserConfig makes sure dataDir holds a config file and returns its
// path. The file is copied from defaultPath when that exists, otherwise it
// is written from Default().
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, FileName)

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) || defaultPath == "" {
		cfg := Default()
		cfg.App.DataDir = dataDir
		return userPath, SaveAtomic(userPath, cfg)
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
