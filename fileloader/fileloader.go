// Package fileloader stores uploaded files on an afero filesystem and keeps their records in a file table.
package fileloader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/datamanager/memory"
)

// IndexFile name of the file table stored under the root
const IndexFile = ".files.json"

// ErrUnsupportedFile file value is neither an Upload nor a path
var ErrUnsupportedFile = errors.New("unsupported file value")

// Upload uploaded file
type Upload struct {
	Name        string
	Content     []byte
	ContentType string
}

// Loader file loader over a filesystem root
type Loader struct {
	mu    sync.Mutex
	fs    afero.Fs
	root  string
	files *memory.Store
}

// Open loader rooted at root, the file table is read from the index when present
func Open(fs afero.Fs, root string) (*Loader, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	loader := &Loader{fs: fs, root: root}
	data, err := afero.ReadFile(fs, path.Join(root, IndexFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		loader.files = memory.New("b_file")
		return loader, nil
	case err != nil:
		return nil, err
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("fileloader: broken index: %w", err)
	}
	for _, row := range rows {
		row[memory.PrimaryKey] = cast.ToInt64(row[memory.PrimaryKey])
		row["FILE_SIZE"] = cast.ToInt64(row["FILE_SIZE"])
	}
	loader.files = memory.New("b_file", rows...)
	return loader, nil
}

// SaveFile write file under subdir and add its record, returns the file id.
// Files are an Upload, a *Upload or the path of a file on the loader filesystem.
func (l *Loader) SaveFile(ctx context.Context, file interface{}, subdir string) (interface{}, error) {
	upload, err := l.upload(file)
	if err != nil {
		return nil, err
	}

	sum := sha1.Sum(upload.Content)
	digest := hex.EncodeToString(sum[:])
	dir := path.Join(strings.Trim(subdir, "/"), digest[:3])
	name := digest[:8] + "_" + path.Base(upload.Name)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(path.Join(l.root, dir), 0o755); err != nil {
		return nil, err
	}
	if err := afero.WriteFile(l.fs, path.Join(l.root, dir, name), upload.Content, 0o644); err != nil {
		return nil, err
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(upload.Name))
	}
	result := l.files.Add(ctx, map[string]interface{}{
		"SUBDIR":        dir,
		"FILE_NAME":     name,
		"ORIGINAL_NAME": upload.Name,
		"CONTENT_TYPE":  contentType,
		"FILE_SIZE":     int64(len(upload.Content)),
	})
	if !result.IsSuccess() {
		return nil, errors.New(result.Error())
	}
	return result.ID, l.writeIndex()
}

// GetList file records matching the filter
func (l *Loader) GetList(ctx context.Context, columns []string, filter clause.Filter) (datamanager.Rows, error) {
	return l.files.GetList(ctx, clause.Parameters{Select: columns, Filter: filter})
}

// Delete remove the file and its record
func (l *Loader) Delete(ctx context.Context, id interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.files.GetList(ctx, clause.Parameters{Filter: clause.NewFilter(clause.Cond{Op: clause.Eq, Column: memory.PrimaryKey, Value: id})})
	if err != nil {
		return err
	}
	records, err := datamanager.Collect(rows)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: b_file %v", datamanager.ErrRecordNotFound, id)
	}

	if err := l.fs.Remove(path.Join(l.root, cast.ToString(records[0]["SUBDIR"]), cast.ToString(records[0]["FILE_NAME"]))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if result := l.files.Delete(ctx, id); !result.IsSuccess() {
		return errors.New(result.Error())
	}
	return l.writeIndex()
}

// Read content of the stored file with the id
func (l *Loader) Read(ctx context.Context, id interface{}) ([]byte, error) {
	rows, err := l.GetList(ctx, []string{"SUBDIR", "FILE_NAME"}, clause.NewFilter(clause.Cond{Op: clause.Eq, Column: memory.PrimaryKey, Value: id}))
	if err != nil {
		return nil, err
	}
	records, err := datamanager.Collect(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: b_file %v", datamanager.ErrRecordNotFound, id)
	}
	return afero.ReadFile(l.fs, path.Join(l.root, cast.ToString(records[0]["SUBDIR"]), cast.ToString(records[0]["FILE_NAME"])))
}

func (l *Loader) upload(file interface{}) (*Upload, error) {
	switch v := file.(type) {
	case Upload:
		return &v, nil
	case *Upload:
		if v != nil {
			return v, nil
		}
	case string:
		content, err := afero.ReadFile(l.fs, v)
		if err != nil {
			return nil, err
		}
		return &Upload{Name: path.Base(v), Content: content}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedFile, file)
}

func (l *Loader) writeIndex() error {
	data, err := json.MarshalIndent(l.files.Rows(), "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(l.fs, path.Join(l.root, IndexFile), data, 0o644)
}
