// Package mocks provides testify mocks for strata's capability interfaces.
package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/strata/internal/envvar"
	"github.com/lc/strata/internal/filesys"
)

var (
	_ filesys.ReadFS      = (*MockFS)(nil)
	_ filesys.ReadWriteFS = (*MockFS)(nil)
	_ filesys.FileOps     = (*MockFS)(nil)
	_ envvar.Lookuper     = (*MockEnv)(nil)
)

// MockFS mocks every file system interface of package filesys.
type MockFS struct {
	mock.Mock
}

// Stat mocks the Stat method. A nil FileInfo is allowed.
func (m *MockFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	var info fs.FileInfo
	if args.Get(0) != nil {
		info = args.Get(0).(fs.FileInfo)
	}
	return info, args.Error(1)
}

// ReadFile mocks the ReadFile method. Data may be given as []byte or string.
func (m *MockFS) ReadFile(p string) ([]byte, error) {
	args := m.Called(p)
	var data []byte
	switch d := args.Get(0).(type) {
	case []byte:
		data = d
	case string:
		data = []byte(d)
	}
	return data, args.Error(1)
}

// MkdirAll mocks the MkdirAll method.
func (m *MockFS) MkdirAll(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}

// Open mocks the Open method.
func (m *MockFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// WriteFile mocks the WriteFile method.
func (m *MockFS) WriteFile(p string, b []byte, mode os.FileMode) error {
	return m.Called(p, b, mode).Error(0)
}

// CreateTemp mocks the CreateTemp method.
func (m *MockFS) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// Rename mocks the Rename method.
func (m *MockFS) Rename(old, newPath string) error {
	return m.Called(old, newPath).Error(0)
}

// Remove mocks the Remove method.
func (m *MockFS) Remove(p string) error {
	return m.Called(p).Error(0)
}

// Chmod mocks the Chmod method.
func (m *MockFS) Chmod(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}

// MockEnv mocks envvar.Lookuper.
type MockEnv struct {
	mock.Mock
}

// LookupEnv mocks the LookupEnv method.
func (m *MockEnv) LookupEnv(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}
