package receipt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrNotFound чека нет на устройстве.
var ErrNotFound = errors.New("receipt not found on device")

// File чек, хранящийся локальным файлом по известному пути.
type File struct {
	path string
}

// NewFile создает источник чека по пути path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load читает байты чека. Отсутствующий или пустой файл дает ErrNotFound.
func (f *File) Load() ([]byte, error) {
	const op = "receipt.File.Load"

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return data, nil
}

// Path путь к файлу чека.
func (f *File) Path() string {
	return f.path
}
