package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/abiibaabi/grr/internal/cli/apiclient"
	"github.com/abiibaabi/grr/internal/cli/connection"
	"github.com/abiibaabi/grr/internal/cli/output"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/server/app"
	"github.com/abiibaabi/grr/internal/server/config"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// testShell is a Runner over an in-memory server stack, acting as raw:alice
// with JSON output and a small page size.
type testShell struct {
	t      *testing.T
	app    *app.App
	conn   *connection.RawConnector
	runner *Runner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestShell(t *testing.T) *testShell {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Storage.GCInterval = 0
	a, err := app.Build(cfg, quiet, nil)
	if err != nil {
		t.Fatalf("app.Build() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	principal, err := domain.NewRawPrincipal("alice")
	if err != nil {
		t.Fatal(err)
	}
	conn, err := connection.NewRawConnector(a.Router, principal, connection.Config{PageSize: 2}, connection.WithLogger(quiet))
	if err != nil {
		t.Fatalf("NewRawConnector() error = %v", err)
	}

	s := &testShell{t: t, app: a, conn: conn, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	s.runner = NewRunner(&Env{
		Client:    apiclient.New(conn),
		Formatter: output.NewFormatter(output.FormatJSON, false),
		Stdout:    s.stdout,
		Stderr:    s.stderr,
	})
	return s
}

// exec runs line and returns what it printed on stdout.
func (s *testShell) exec(line string) (string, error) {
	s.stdout.Reset()
	s.stderr.Reset()
	err := s.runner.Exec(context.Background(), line)
	return s.stdout.String(), err
}

// mustExec runs line and decodes its JSON output into out.
func (s *testShell) mustExec(line string, out any) {
	s.t.Helper()
	got, err := s.exec(line)
	if err != nil {
		s.t.Fatalf("%s: error = %v (stderr %q)", line, err, s.stderr.String())
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(got), out); err != nil {
		s.t.Fatalf("%s: decode %q: %v", line, got, err)
	}
}
