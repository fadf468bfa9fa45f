package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Screenshots — локальное файловое хранилище скриншотов комментариев.
// Виджет присылает data-URL (base64 PNG), наружу отдаётся публичный URL.
type Screenshots struct {
	dir     string
	baseURL string
}

func NewScreenshots(dir, baseURL string) *Screenshots {
	return &Screenshots{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save раскодирует data-URL и пишет файл под случайным именем.
func (s *Screenshots) Save(dataURL string) (string, error) {
	raw := dataURL
	if i := strings.Index(raw, ";base64,"); i >= 0 {
		raw = raw[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ".png"
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/" + name, nil
}
