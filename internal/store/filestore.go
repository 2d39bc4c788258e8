package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// idLayout is the timestamp layout used to derive report IDs.
	// Second-level resolution: two saves within the same second collide,
	// and the later one overwrites the earlier. This is an accepted
	// limitation of the naming scheme, not silently masked.
	idLayout = "20060102_150405"

	filePrefix = "report_"
	fileExt    = ".txt"

	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore is a filesystem implementation of [Store].
//
// Each report is written as <dir>/report_<timestamp>.txt. FileStore is safe
// for concurrent use; concurrent saves in distinct seconds target distinct
// files.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates a [FileStore] rooted at dir, creating the directory
// (and any parents) if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: creating reports directory: %w", ErrStorage, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving reports directory: %w", ErrStorage, err)
	}

	return &FileStore{dir: abs, now: time.Now}, nil
}

// Dir returns the absolute reports directory.
func (f *FileStore) Dir() string { return f.dir }

// Save persists content as a new timestamped report file.
func (f *FileStore) Save(ctx context.Context, content string) (Report, error) {
	if content == "" {
		return Report{}, ErrEmptyContent
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	createdAt := f.now()
	id := createdAt.Format(idLayout)
	filename := filePrefix + id + fileExt
	path := filepath.Join(f.dir, filename)

	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return Report{}, fmt.Errorf("%w: writing %s: %w", ErrStorage, filename, err)
	}

	return Report{
		ID:        id,
		Filename:  filename,
		Path:      path,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// List returns the stored reports, newest first, without content.
func (f *FileStore) List(ctx context.Context) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading reports directory: %w", ErrStorage, err)
	}

	reports := make([]Report, 0, len(entries))
	for _, entry := range entries {
		r, ok := f.reportFromEntry(entry)
		if !ok {
			continue
		}
		reports = append(reports, r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ID > reports[j].ID
	})
	return reports, nil
}

// Load reads a stored report, including its content.
func (f *FileStore) Load(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	createdAt, err := time.ParseInLocation(idLayout, id, time.Local)
	if err != nil {
		return Report{}, fmt.Errorf("invalid report id %q: %w", id, err)
	}

	filename := filePrefix + id + fileExt
	path := filepath.Join(f.dir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, fmt.Errorf("report %q: %w", id, fs.ErrNotExist)
		}
		return Report{}, fmt.Errorf("%w: reading %s: %w", ErrStorage, filename, err)
	}

	return Report{
		ID:        id,
		Filename:  filename,
		Path:      path,
		Content:   string(data),
		CreatedAt: createdAt,
	}, nil
}

// reportFromEntry converts a directory entry to a content-less Report,
// skipping files that do not match the report naming scheme.
func (f *FileStore) reportFromEntry(entry fs.DirEntry) (Report, bool) {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
		return Report{}, false
	}

	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
	createdAt, err := time.ParseInLocation(idLayout, id, time.Local)
	if err != nil {
		return Report{}, false
	}

	return Report{
		ID:        id,
		Filename:  name,
		Path:      filepath.Join(f.dir, name),
		CreatedAt: createdAt,
	}, true
}
