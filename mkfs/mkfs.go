// Package mkfs has the flat-directory filesystem helpers mpymk builds on:
// listing one directory with composable filters, moving files into a
// collection directory and removing files that may or may not exist.
package mkfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is the path of a regular file.
type File string

func (f File) Path() string { return string(f) }

func (f File) Name() string { return filepath.Base(string(f)) }

func (f File) Ext() string { return filepath.Ext(string(f)) }

// WithExt replaces f's extension with ext, or appends ext if f has none. An
// empty ext strips the extension.
func (f File) WithExt(ext string) File {
	path := f.Path()
	if ext == "" {
		fExt := filepath.Ext(path)
		return File(path[:len(path)-len(fExt)])
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	fExt := filepath.Ext(path)
	return File(path[:len(path)-len(fExt)] + ext)
}

func (f File) Exists() bool {
	st, err := os.Stat(f.Path())
	if err != nil {
		return false
	}
	return !st.IsDir()
}

// List returns the names of the non-directory entries of dir that filter
// accepts. The names are in lexicographic order, so a listing of an
// unchanged directory is reproducible.
func List(dir string, filter Filter) ([]string, error) {
	entries, err := os.ReadDir(dir) // sorted by name
	if err != nil {
		return nil, err
	}
	var ls []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filter != nil {
			if ok, err := filter.Ok(e.Name(), e); err != nil {
				return nil, err
			} else if !ok {
				continue
			}
		}
		ls = append(ls, e.Name())
	}
	return ls, nil
}

// MoveInto moves the file at path into directory dest, keeping its base
// name and overwriting any same-named file already there. Moving across
// filesystems falls back to copy and remove. Returns the new path.
func MoveInto(path, dest string) (string, error) {
	dst := filepath.Join(dest, filepath.Base(path))
	err := os.Rename(path, dst)
	if err == nil {
		return dst, nil
	}
	var lerr *os.LinkError
	if !errors.As(err, &lerr) {
		return "", err
	}
	if err := copyFile(dst, path); err != nil {
		return "", fmt.Errorf("move %s to %s: %w", path, dest, err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("move %s to %s: %w", path, dest, err)
	}
	return dst, nil
}

// RemoveIfExists removes the file at path and reports whether it removed
// anything. A missing file is not an error.
func RemoveIfExists(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, err
}

func copyFile(dst, src string) error {
	st, err := os.Stat(src)
	if err != nil {
		return err
	}
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
