package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	vfs "github.com/twpayne/go-vfs"
	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/types"
)

const fileExtension = ".bin"

// FileStore keeps one file per checkpoint, dir/<prefix><name>.bin
type FileStore struct {
	fs     vfs.FS
	dir    string
	prefix string
}

var _ Store = &FileStore{}

func NewFileStore(fs vfs.FS, dir, prefix string) *FileStore {
	if fs == nil {
		fs = vfs.OSFS
	}
	return &FileStore{
		fs:     fs,
		dir:    dir,
		prefix: prefix,
	}
}

func (f *FileStore) Path(name string) string {
	return filepath.Join(f.dir, f.prefix+name+fileExtension)
}

// Save writes to a temporary file first and renames it in place,
// readers never see a partially written table
func (f *FileStore) Save(_ context.Context, name string, table *policies.QTable) error {
	data, err := Encode(table)
	if err != nil {
		return err
	}
	if err := vfs.MkdirAll(f.fs, f.dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", f.dir, err)
	}
	path := f.Path(name)
	tmp := path + ".tmp"
	if err := f.fs.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, name string) (*policies.QTable, error) {
	path := f.Path(name)
	data, err := f.fs.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", types.ErrCheckpointAbsent, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data)
}

func (f *FileStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := f.fs.Stat(f.Path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// List returns the names of the stored checkpoints in lexical order
func (f *FileStore) List() ([]string, error) {
	infos, err := f.fs.ReadDir(f.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		n := info.Name()
		if info.IsDir() || !strings.HasPrefix(n, f.prefix) || !strings.HasSuffix(n, fileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(n, f.prefix), fileExtension))
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileStore) Close() error {
	return nil
}
