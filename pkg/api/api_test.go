package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/strata/internal/envvar"
	"github.com/lc/strata/pkg/api"
	"github.com/lc/strata/pkg/strata"
)

const fixture = `
production:
  example:
    DATABASE_URL: postgres://prod/db
    list: [a, b, c]
local:
  foo:
    enabled: false
`

type APITestSuite struct {
	suite.Suite
	dir string
	cfg *strata.Configuration
	srv *httptest.Server
}

func (s *APITestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.write(fixture)

	cfg, err := strata.New(
		strata.WithDirectory(s.dir),
		strata.WithFiles("config.yml"),
		strata.WithEnv(envvar.Map{"TOKEN": "from-env"}),
	)
	s.Require().NoError(err)
	s.cfg = cfg
	s.srv = httptest.NewServer(api.New(cfg).Handler())
}

func (s *APITestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *APITestSuite) write(content string) {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "config.yml"), []byte(content), 0o600))
}

func (s *APITestSuite) do(method, path string, out any) int {
	req, err := http.NewRequest(method, s.srv.URL+path, nil)
	s.Require().NoError(err)
	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *APITestSuite) TestValue() {
	testCases := []struct {
		name     string
		query    string
		status   int
		expected any
	}{
		{name: "scalar", query: "path=example.DATABASE_URL&env=production", status: http.StatusOK, expected: "postgres://prod/db"},
		{name: "inherited list", query: "path=example/list&env=testing", status: http.StatusOK, expected: []any{"a", "b", "c"}},
		{name: "default environment", query: "path=foo:enabled", status: http.StatusOK, expected: false},
		{name: "falsy with default", query: "path=foo.enabled&default=on", status: http.StatusOK, expected: "on"},
		{name: "env override", query: "path=svc.TOKEN&throw=false", status: http.StatusOK, expected: "from-env"},
		{name: "override disabled", query: "path=svc.TOKEN&throw=false&envvars=false&default=d", status: http.StatusOK, expected: "d"},
		{name: "missing path", query: "path=nope", status: http.StatusNotFound},
		{name: "unknown environment", query: "path=foo&env=qa", status: http.StatusNotFound},
		{name: "bad flag", query: "path=foo&throw=maybe", status: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			if tc.status != http.StatusOK {
				var out api.ErrorResponse
				s.Equal(tc.status, s.do(http.MethodGet, "/v1/value?"+tc.query, &out))
				s.NotEmpty(out.Error)
				return
			}
			var out api.ValueResponse
			s.Require().Equal(tc.status, s.do(http.MethodGet, "/v1/value?"+tc.query, &out))
			s.Equal(tc.expected, out.Value)
		})
	}
}

func (s *APITestSuite) TestValueReportsEnvironment() {
	var out api.ValueResponse
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/value?path=foo.enabled", &out))
	s.Equal("local", out.Environment)
	s.Equal("foo.enabled", out.Path)
}

func (s *APITestSuite) TestReload() {
	before := s.cfg.Snapshot().ID
	s.write("local:\n  foo:\n    enabled: true\n")

	var out api.ReloadResponse
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/v1/reload", &out))
	s.NotEqual(before, out.Snapshot)
	s.Equal(1, out.Documents)

	var v api.ValueResponse
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/value?path=foo.enabled", &v))
	s.Equal(true, v.Value)
}

func (s *APITestSuite) TestReloadFailure() {
	before := s.cfg.Snapshot().ID
	s.write("local: [broken")

	var out api.ErrorResponse
	s.Equal(http.StatusInternalServerError, s.do(http.MethodPost, "/v1/reload", &out))
	s.Contains(out.Error, "parsing config file")
	s.Equal(before, s.cfg.Snapshot().ID)
}

func (s *APITestSuite) TestUnencodableValue() {
	s.write("production:\n  bad:\n    ratio: .inf\n")
	s.Require().NoError(s.cfg.Reload())

	var out api.ErrorResponse
	s.Equal(http.StatusInternalServerError, s.do(http.MethodGet, "/v1/value?path=bad.ratio&env=production", &out))
	s.Contains(out.Error, "encoding response")
}

func (s *APITestSuite) TestReloadRequiresPost() {
	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodGet, "/v1/reload", nil))
}

func (s *APITestSuite) TestStatus() {
	var out api.StatusResponse
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/status", &out))

	s.Equal(s.cfg.Snapshot().ID, out.Snapshot)
	s.Equal("local", out.Environment)
	s.Equal(s.cfg.Environments(), out.Environments)
	s.Equal(int64(1), out.Reloads)
	s.Equal([]string{filepath.Join(s.dir, "config.yml")}, out.Files)
	s.NotEmpty(out.Version)
}

func (s *APITestSuite) TestEnvironment() {
	var out map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/environments/staging", &out))
	s.Equal(map[string]any{
		"example": map[string]any{
			"DATABASE_URL": "postgres://prod/db",
			"list":         []any{"a", "b", "c"},
		},
	}, out)

	var e api.ErrorResponse
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/environments/qa", &e))
	s.Contains(e.Error, "qa")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
