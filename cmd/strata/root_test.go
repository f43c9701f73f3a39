package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type RootCmdTestSuite struct {
	suite.Suite
	dir string
}

func (s *RootCmdTestSuite) SetupTest() {
	for _, k := range []string{"CONFIG_DIR", "CONFIG_FILES", "CONFIG_ENV", "CONFIG_ENVS"} {
		s.T().Setenv(k, "")
	}
	s.dir = s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "config.yml"), []byte(`
production:
  example:
    url: postgres://prod/db
    list: [a, b, c]
  foo:
    enabled: true
`), 0o600))
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "localhost.yml"), []byte(`
local:
  foo:
    enabled: false
`), 0o600))
}

func (s *RootCmdTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--dir", s.dir))
	err := cmd.Execute()
	return out.String(), err
}

func (s *RootCmdTestSuite) TestGetScalar() {
	out, err := s.run("get", "example.url", "--env", "production", "--no-envvars")
	s.Require().NoError(err)
	s.Equal("postgres://prod/db\n", out)

	out, err = s.run("get", "foo:enabled", "--no-envvars")
	s.Require().NoError(err)
	s.Equal("false\n", out)
}

func (s *RootCmdTestSuite) TestGetCollectionAsYAML() {
	out, err := s.run("get", "example/list", "--env", "testing", "--no-envvars")
	s.Require().NoError(err)

	var got []string
	s.Require().NoError(yaml.Unmarshal([]byte(out), &got))
	s.Equal([]string{"a", "b", "c"}, got)
}

func (s *RootCmdTestSuite) TestGetDefault() {
	out, err := s.run("get", "foo.enabled", "--default", "yes", "--no-envvars")
	s.Require().NoError(err)
	s.Equal("yes\n", out)

	out, err = s.run("get", "nope.missing", "--no-throw", "--no-envvars")
	s.Require().NoError(err)
	s.Equal("null\n", out)
}

func (s *RootCmdTestSuite) TestGetMissingFails() {
	_, err := s.run("get", "nope.missing", "--no-envvars")
	s.Require().Error(err)
	s.Contains(err.Error(), "missing")
}

func (s *RootCmdTestSuite) TestDump() {
	out, err := s.run("dump", "--env", "staging")
	s.Require().NoError(err)

	var got map[string]any
	s.Require().NoError(yaml.Unmarshal([]byte(out), &got))
	s.Equal(map[string]any{
		"example": map[string]any{"url": "postgres://prod/db", "list": []any{"a", "b", "c"}},
		"foo":     map[string]any{"enabled": true},
	}, got)
}

func (s *RootCmdTestSuite) TestEnvs() {
	out, err := s.run("envs", "--environments", "production,local")
	s.Require().NoError(err)
	s.Contains(out, "production")
	s.Contains(out, "local")
	s.Contains(out, "example, foo")
	s.Contains(out, "*")
}

func (s *RootCmdTestSuite) TestExport() {
	dst := filepath.Join(s.T().TempDir(), "out", "production.yml")

	out, err := s.run("export", "--out", dst, "--env", "production")
	s.Require().NoError(err)
	s.Contains(out, dst)

	data, err := os.ReadFile(dst)
	s.Require().NoError(err)
	var got map[string]any
	s.Require().NoError(yaml.Unmarshal(data, &got))
	s.Equal(map[string]any{"enabled": true}, got["foo"])
}

func (s *RootCmdTestSuite) TestExportRequiresOut() {
	_, err := s.run("export")
	s.Require().Error(err)
	s.Contains(err.Error(), "out")
}

func (s *RootCmdTestSuite) TestMergeLists() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "localhost.yml"), []byte("local:\n  example:\n    list: [z]\n"), 0o600))

	out, err := s.run("get", "example.list.1", "--merge-lists", "--no-envvars")
	s.Require().NoError(err)
	s.Equal("b\n", out)

	_, err = s.run("get", "example.list.1", "--no-envvars")
	s.Error(err)
}

func (s *RootCmdTestSuite) TestVersion() {
	out, err := s.run("version")
	s.Require().NoError(err)
	s.Contains(out, "commit")
}

func TestRootCmdSuite(t *testing.T) {
	suite.Run(t, new(RootCmdTestSuite))
}
