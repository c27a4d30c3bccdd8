package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/tick/internal/core/cache"
	"github.com/colonyops/tick/internal/store/jsonfile"
)

type Flags struct {
	LogLevel string
	LogFile  string
	DataDir  string
	CacheDir string
}

// SessionsDir is where session files live under the data directory.
func (f *Flags) SessionsDir() string {
	return filepath.Join(f.DataDir, "sessions")
}

// Store opens the session store, creating the directory if needed.
func (f *Flags) Store() (*jsonfile.SessionStore, error) {
	return f.StoreAt(f.SessionsDir())
}

// StoreAt opens a session store rooted at an explicit directory.
func (f *Flags) StoreAt(dir string) (*jsonfile.SessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return jsonfile.NewSessionStore(dir), nil
}

// Cache returns the expansion cache rooted at the configured directory.
func (f *Flags) Cache() *cache.Cache {
	return cache.New(f.CacheDir)
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tick")
}

// DefaultCacheDir returns the default expansion cache directory.
func DefaultCacheDir() string {
	dir, err := cache.DefaultDir()
	if err != nil {
		return filepath.Join(DefaultDataDir(), "cache")
	}
	return dir
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/tick/tick.log
// On Linux: $XDG_STATE_HOME/tick/tick.log (defaults to ~/.local/state/tick/tick.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "tick", "tick.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "tick", "tick.log")
	}

	return filepath.Join(home, ".local", "state", "tick", "tick.log")
}
