package util

import (
	"encoding/json"
	"os"
	"path/filepath"

	vfs "github.com/twpayne/go-vfs"
)

// EnsureDir creates dir and its parents when missing
func EnsureDir(fs vfs.FS, dir string) error {
	return vfs.MkdirAll(fs, dir, 0o755)
}

// WriteLines replaces the file with the given lines, one per line
func WriteLines(fs vfs.FS, savePath string, lines ...string) error {
	if err := EnsureDir(fs, filepath.Dir(savePath)); err != nil {
		return err
	}
	data := make([]byte, 0)
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	return fs.WriteFile(savePath, data, 0o644)
}

// AppendLines appends to the file, creating it when needed
func AppendLines(fs vfs.FS, savePath string, lines ...string) error {
	if err := EnsureDir(fs, filepath.Dir(savePath)); err != nil {
		return err
	}
	f, err := fs.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, s := range lines {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// AppendJSONLine appends v as a single JSON line
func AppendJSONLine(fs vfs.FS, savePath string, v interface{}) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return AppendLines(fs, savePath, string(bs))
}
