// Package filesys holds the small file system surfaces strata depends on,
// with implementations that delegate to the standard library. Code that
// touches disk takes one of these interfaces so tests can substitute an
// in-memory or mocked file system.
package filesys

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lc/strata/internal/log"
)

// ReadFS is what the document loader and the file placeholder resolver need.
type ReadFS interface {
	Stat(string) (fs.FileInfo, error)
	ReadFile(string) ([]byte, error)
}

// ReadWriteFS is what the daemon config provider needs.
type ReadWriteFS interface {
	Stat(string) (fs.FileInfo, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
	WriteFile(string, []byte, os.FileMode) error
}

// FileOps is what AtomicWrite needs.
type FileOps interface {
	Open(string) (*os.File, error)
	MkdirAll(string, os.FileMode) error
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// OS returns a file system that delegates to the standard library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements every interface of this package against the local disk.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)               { return os.Stat(p) }
func (OsFS) ReadFile(p string) ([]byte, error)                { return os.ReadFile(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error           { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)                  { return os.Open(p) }
func (OsFS) WriteFile(p string, b []byte, m os.FileMode) error { return os.WriteFile(p, b, m) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error)      { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error                  { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                             { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error               { return os.Chmod(p, m) }

var (
	_ ReadFS      = OsFS{}
	_ ReadWriteFS = OsFS{}
	_ FileOps     = OsFS{}
)

// AtomicWrite replaces dst with data so that readers see either the old or
// the new content, never a torn file:
//
//  1. create the parent directory when needed
//  2. write and fsync a temp file in the same directory
//  3. chmod the temp file to perm
//  4. rename it over dst
//  5. fsync the directory
func AtomicWrite(fsys FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := fsys.CreateTemp(dir, ".strata-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fsys.Chmod(name, perm)
	}
	if err == nil {
		err = fsys.Rename(name, dst)
	}
	if err != nil {
		if rmErr := fsys.Remove(name); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("filesys: failed to remove temp file", "path", name, "error", rmErr)
		}
		return err
	}

	syncDir(fsys, dir)
	return nil
}

func syncDir(fsys FileOps, dir string) {
	d, err := fsys.Open(dir)
	if err != nil {
		return
	}
	if err := d.Sync(); err != nil {
		log.Debug("filesys: directory sync failed", "dir", dir, "error", err)
	}
	if err := d.Close(); err != nil {
		log.Debug("filesys: directory close failed", "dir", dir, "error", err)
	}
}
