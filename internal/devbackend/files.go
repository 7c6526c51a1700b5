package devbackend

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StoredFile describes an uploaded file. Only metadata is kept.
type StoredFile struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

// FileStore records uploads in memory and hands out
// /uploads/<destination>/<uuid><ext> references.
type FileStore struct {
	mu    sync.RWMutex
	files map[string]StoredFile
}

// NewFileStore creates an empty FileStore.
func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string]StoredFile)}
}

var destinationPattern = regexp.MustCompile(`[^a-z0-9-]+`)

// Save records one file under destination and returns its reference.
func (fs *FileStore) Save(_ context.Context, destination, name, contentType string, size int64) StoredFile {
	dest := destinationPattern.ReplaceAllString(strings.ToLower(destination), "")
	if dest == "" {
		dest = "misc"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f := StoredFile{
		URL:          fmt.Sprintf("/uploads/%s/%s%s", dest, uuid.New().String(), strings.ToLower(path.Ext(name))),
		OriginalName: name,
		ContentType:  contentType,
		Size:         size,
	}

	fs.mu.Lock()
	fs.files[f.URL] = f
	fs.mu.Unlock()
	return f
}

// Get returns the file stored at url.
func (fs *FileStore) Get(url string) (StoredFile, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	f, ok := fs.files[url]
	return f, ok
}

// Len returns the number of stored files.
func (fs *FileStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}
