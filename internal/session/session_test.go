package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TWRT/courier-dispatch/internal/models"
)

func TestSaveAndLoadSession(t *testing.T) {
	t.Parallel()
	cfg := New(filepath.Join(t.TempDir(), "courierctl"))
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	cfg.SetClock(func() time.Time { return now })

	want := Session{
		BaseURL:   "http://dispatch.test",
		Token:     "jwt",
		ExpiresAt: now.Add(time.Hour),
		User:      models.User{ID: 3, Email: "rui@acme.test", Role: models.RoleCourier},
	}
	if err := cfg.SaveSession(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(cfg.SessionPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}

	got, err := cfg.LoadSession()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != want.Token || got.User.Email != want.User.Email || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("session = %+v, want %+v", got, want)
	}
}

func TestExpiredSessionIsAbsent(t *testing.T) {
	t.Parallel()
	cfg := New(t.TempDir())
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	cfg.SetClock(func() time.Time { return now })

	if err := cfg.SaveSession(Session{Token: "jwt", ExpiresAt: now.Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, err := cfg.LoadSession()
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if !strings.Contains(err.Error(), "2 hours ago") {
		t.Fatalf("err = %q, want relative expiry", err)
	}
}

func TestMissingAndCorruptSession(t *testing.T) {
	t.Parallel()
	cfg := New(t.TempDir())

	if _, err := cfg.LoadSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("missing: err = %v, want ErrNoSession", err)
	}

	if err := os.WriteFile(cfg.SessionPath(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := cfg.LoadSession()
	if err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("corrupt: err = %v, want parse error", err)
	}
}

func TestRemoveSession(t *testing.T) {
	t.Parallel()
	cfg := New(t.TempDir())

	if existed, err := cfg.RemoveSession(); err != nil || existed {
		t.Fatalf("remove missing = %v, %v", existed, err)
	}
	if err := cfg.SaveSession(Session{Token: "jwt"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if existed, err := cfg.RemoveSession(); err != nil || !existed {
		t.Fatalf("remove = %v, %v", existed, err)
	}
}

func TestResolveServer(t *testing.T) {
	t.Setenv("COURIER_SERVER", "http://env.test/")
	cfg := New(t.TempDir())

	if got := cfg.ResolveServer(Session{}); got != "http://env.test" {
		t.Fatalf("env server = %q", got)
	}
	if got := cfg.ResolveServer(Session{BaseURL: "http://session.test"}); got != "http://session.test" {
		t.Fatalf("session server = %q", got)
	}
	cfg.Server = "http://flag.test"
	if got := cfg.ResolveServer(Session{BaseURL: "http://session.test"}); got != "http://flag.test" {
		t.Fatalf("flag server = %q", got)
	}
}

func TestDefaultConfigDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigDir(); got != filepath.Join("/tmp/xdg", AppName) {
		t.Fatalf("dir = %q", got)
	}
}
