// Package session manages the courierctl config directory and the cached
// login session stored in it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TWRT/courier-dispatch/internal/models"
)

const (
	AppName     = "courierctl"
	SessionFile = "session.json"

	// DefaultServer is used when neither a flag, the session nor
	// COURIER_SERVER names one.
	DefaultServer = "http://localhost:8080"
)

// ErrNoSession means there is no usable cached session.
var ErrNoSession = errors.New("not logged in")

// Session is the cached result of a login.
type Session struct {
	BaseURL   string      `json:"base_url"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Config holds the config directory and global flags.
type Config struct {
	Dir    string
	Server string
	Quiet  bool

	now func() time.Time
}

// New returns a Config rooted at configDir, or the XDG default when empty.
func New(configDir string) *Config {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, now: time.Now}
}

// DefaultConfigDir uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// SetClock overrides the clock used for expiry checks.
func (c *Config) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// ResolveServer picks the API base URL: explicit flag, then the session,
// then COURIER_SERVER, then DefaultServer.
func (c *Config) ResolveServer(s Session) string {
	for _, candidate := range []string{c.Server, s.BaseURL, os.Getenv("COURIER_SERVER")} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return strings.TrimRight(candidate, "/")
		}
	}
	return DefaultServer
}

// LoadSession returns the cached session. Missing and expired sessions both
// yield an error wrapping ErrNoSession.
func (c *Config) LoadSession() (Session, error) {
	raw, err := os.ReadFile(c.SessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("corrupt session file %s: %w", c.SessionPath(), err)
	}
	if s.Token == "" {
		return Session{}, ErrNoSession
	}
	if s.Expired(c.Now()) {
		return Session{}, fmt.Errorf("%w: session expired %s", ErrNoSession, humanize.RelTime(s.ExpiresAt, c.Now(), "ago", "from now"))
	}
	return s, nil
}

// SaveSession writes s with mode 0600, replacing any previous session.
func (c *Config) SaveSession(s Session) error {
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.SessionPath()); err != nil {
		return fmt.Errorf("commit session file: %w", err)
	}
	return nil
}

// RemoveSession deletes the cached session. It reports whether one existed.
func (c *Config) RemoveSession() (bool, error) {
	err := os.Remove(c.SessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove session: %w", err)
	}
	return true, nil
}
