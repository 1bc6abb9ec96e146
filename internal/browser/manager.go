package browser

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Manager brackets the session of one run: one Acquire, at most one
// Reacquire, and a Release that is safe on every exit path.
type Manager struct {
	opts       Options
	launch     Launcher
	current    Session
	reacquired bool
}

func NewManager(opts Options) *Manager {
	return NewManagerWithLauncher(opts, Acquire)
}

// NewManagerWithLauncher is NewManager with a custom session factory.
func NewManagerWithLauncher(opts Options, launch Launcher) *Manager {
	return &Manager{opts: opts, launch: launch}
}

// Acquire returns the current session, launching it on first use.
func (m *Manager) Acquire(ctx context.Context) (Session, error) {
	if m.current != nil {
		return m.current, nil
	}
	s, err := m.launch(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("acquire browser session: %w", err)
	}
	m.current = s
	return s, nil
}

// Reacquire replaces an unusable session with a fresh one. It succeeds once per Manager.
func (m *Manager) Reacquire(ctx context.Context) (Session, error) {
	if m.reacquired {
		return nil, ErrReacquireExhausted
	}
	m.reacquired = true

	if m.current != nil {
		if err := m.current.Close(); err != nil {
			log.WithError(err).Warn("⚠️ Closing the broken session failed")
		}
		m.current = nil
	}
	log.Warn("🔄 Reacquiring browser session")
	return m.Acquire(ctx)
}

// Reacquired reports whether the one reacquire has been spent.
func (m *Manager) Reacquired() bool {
	return m.reacquired
}

// Release closes the current session, if any.
func (m *Manager) Release() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("release browser session: %w", err)
	}
	return nil
}
