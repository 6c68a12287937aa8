package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
)

var _ ports.FileStorage = (*Files)(nil)

// Files — файловое хранилище в памяти
type Files struct {
	mu      sync.Mutex
	BaseURL string
	objects map[string][]byte
}

func NewFiles(baseURL string) *Files {
	return &Files{BaseURL: baseURL, objects: make(map[string][]byte)}
}

func (f *Files) UploadFile(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("чтение файла %s: %w", key, err)
	}

	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()
	return f.PublicURL(key), nil
}

func (f *Files) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *Files) PublicURL(key string) string {
	return f.BaseURL + "/" + key
}

// Has сообщает, хранится ли объект с ключом
func (f *Files) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// Len возвращает количество хранимых объектов
func (f *Files) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}
