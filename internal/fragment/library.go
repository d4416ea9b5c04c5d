// Package fragment manages the on-disk library of pre-converted
// fragment files the viewer can load. Conversion from source BIM files
// happens elsewhere; this package only lists and serves the results.
package fragment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Ext is the fragment file extension.
const Ext = ".frag"

// Info describes one fragment file in the library.
type Info struct {
	Name     string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// SizeMB returns the file size in megabytes, rounded to two decimals.
func (i Info) SizeMB() float64 {
	return float64(int64(float64(i.Size)/(1024*1024)*100)) / 100
}

// Library is a directory of fragment files.
type Library struct {
	dir string
}

// NewLibrary opens (creating if needed) the library directory.
func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating fragments directory %s: %w", dir, err)
	}
	return &Library{dir: dir}, nil
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// List returns the fragment files sorted by name.
func (l *Library) List() ([]Info, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("listing fragments: %w", err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: e.Name(), Size: fi.Size(), Modified: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Path resolves a fragment name to its on-disk path, rejecting names
// that escape the library directory or lack the fragment extension.
func (l *Library) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid fragment name %q", name)
	}
	if !strings.EqualFold(filepath.Ext(name), Ext) {
		return "", fmt.Errorf("not a fragment file: %q", name)
	}
	return filepath.Join(l.dir, name), nil
}

// Read returns the contents of a fragment file.
func (l *Library) Read(name string) ([]byte, error) {
	path, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("fragment file not found: %s", name)
		}
		return nil, fmt.Errorf("reading fragment %s: %w", name, err)
	}
	return data, nil
}
