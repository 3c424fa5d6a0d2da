package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"codequest/internal/session"
)

// Login stores token in the configured token file so later workspace runs
// start logged in.
func Login(cfg Config, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("empty token")
	}
	path, err := tokenPath(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	if err := session.NewFile(path).SetToken(token); err != nil {
		return "", err
	}
	return path, nil
}

// Logout removes the token file. A missing file is not an error.
func Logout(cfg Config) (string, error) {
	path, err := tokenPath(cfg)
	if err != nil {
		return "", err
	}
	return path, session.NewFile(path).Logout()
}

func tokenPath(cfg Config) (string, error) {
	if cfg.TokenFile != "" {
		return cfg.TokenFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New("no token file configured")
	}
	return filepath.Join(dir, "codequest", "token"), nil
}
