package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Session - временная директория для файлов записи одного движка.
// Удаляется целиком при Close.
type Session struct {
	dir string
}

// NewSession создаёт временную директорию.
func NewSession() (*Session, error) {
	dir, err := os.MkdirTemp("", "stroop-voice-*")
	if err != nil {
		return nil, fmt.Errorf("не удалось создать временную директорию: %w", err)
	}
	return &Session{dir: dir}, nil
}

// Dir возвращает путь к директории.
func (s *Session) Dir() string {
	return s.dir
}

// NewFile возвращает уникальный путь с расширением ext. Файл не создаётся.
func (s *Session) NewFile(ext string) string {
	return filepath.Join(s.dir, uuid.NewString()+"."+ext)
}

// Remove удаляет файл записи. Ошибки игнорируются.
func (s *Session) Remove(path string) {
	_ = os.Remove(path)
}

// Close удаляет директорию со всеми файлами.
func (s *Session) Close() error {
	return os.RemoveAll(s.dir)
}
