package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/client/authclient"
)

type fakeClient struct {
	access, refresh string

	addr     string
	name     string
	email    string
	password string
	offset   int
	limit    int

	user     *authclient.User
	sessions []authclient.Session
	revoked  int64
	err      error
	closed   bool
}

func (f *fakeClient) Register(_ context.Context, name, email string, password []byte) error {
	f.name, f.email, f.password = name, email, string(password)
	if f.err != nil {
		return f.err
	}
	f.access, f.refresh = "acc", "ref"
	return nil
}

func (f *fakeClient) Login(_ context.Context, email string, password []byte) error {
	f.email, f.password = email, string(password)
	if f.err != nil {
		return f.err
	}
	f.access, f.refresh = "acc", "ref"
	return nil
}

func (f *fakeClient) Refresh(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.access = "acc2"
	return nil
}

func (f *fakeClient) Logout(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.access, f.refresh = "", ""
	return nil
}

func (f *fakeClient) Me(context.Context) (*authclient.User, error) {
	return f.user, f.err
}

func (f *fakeClient) LogoutAll(context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.access, f.refresh = "", ""
	return f.revoked, nil
}

func (f *fakeClient) ListSessions(_ context.Context, offset, limit int) ([]authclient.Session, error) {
	f.offset, f.limit = offset, limit
	return f.sessions, f.err
}

func (f *fakeClient) Ping(context.Context) error { return f.err }

func (f *fakeClient) Tokens() (string, string) { return f.access, f.refresh }

func (f *fakeClient) SetTokens(a, r string) { f.access, f.refresh = a, r }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

// testRun runs the CLI against fc with a session file in a temp dir.
type testRun struct {
	t       *testing.T
	fc      *fakeClient
	session string
}

func newTestRun(t *testing.T, fc *fakeClient) *testRun {
	t.Helper()

	origClient, origPassword := newClient, readPassword
	t.Cleanup(func() { newClient, readPassword = origClient, origPassword })

	newClient = func(addr string) (AuthClient, error) {
		fc.addr = addr
		return fc, nil
	}
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	return &testRun{t: t, fc: fc, session: filepath.Join(t.TempDir(), "session.json")}
}

func (r *testRun) run(stdin string, args ...string) (string, error) {
	r.t.Helper()

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{"taskboard", "--session", r.session}, args...)
	err := app.Run(argv)
	return out.String(), err
}
