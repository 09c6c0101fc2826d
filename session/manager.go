package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/storage"
	"github.com/absmach/cvdash/view"
	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

const slotPrefix = "session/"

// Manager tracks live sessions. Records survive restarts in the slot
// repository; views are rebuilt on first use.
type Manager struct {
	creds   []Credential
	slots   storage.SlotRepository
	backend view.Backend
	views   func(role Role, hospitalID string) view.Config
	clock   clock.WithTicker
	logger  *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	sessions map[string]*Session
}

func NewManager(creds []Credential, slots storage.SlotRepository, backend view.Backend, clk clock.WithTicker, logger *slog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		creds:    creds,
		slots:    slots,
		backend:  backend,
		views:    ViewConfig,
		clock:    clk,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// ViewConfig selects the polled resources for a role.
func ViewConfig(role Role, hospitalID string) view.Config {
	if role == Admin {
		return view.AdminConfig()
	}

	return view.HospitalConfig(hospitalID)
}

func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	c, err := authenticate(m.creds, username, password)
	if err != nil {
		return nil, err
	}

	rec := Record{
		Token:      uuid.NewString(),
		Username:   c.Username,
		Role:       c.Role,
		HospitalID: c.HospitalID,
		CreatedAt:  m.clock.Now().UTC(),
	}
	data, err := rec.marshal()
	if err != nil {
		return nil, err
	}
	if err := m.slots.Set(ctx, slotPrefix+rec.Token, data); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return nil, view.ErrClosed
	}
	s := m.open(rec)
	m.logger.Info("Session opened",
		slog.String("username", rec.Username),
		slog.String("role", string(rec.Role)),
	)

	return s, nil
}

// open starts the view for rec. The caller holds mu.
func (m *Manager) open(rec Record) *Session {
	v := view.New(m.backend, m.views(rec.Role, rec.HospitalID), m.clock, m.logger.With(slog.String("role", string(rec.Role))))
	v.Start(m.ctx)
	s := &Session{Record: rec, view: v}
	m.sessions[rec.Token] = s

	return s
}

// Get resolves a token, restoring a persisted session when needed.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, pkgerrors.ErrUnauthorized
	}

	m.mu.Lock()
	s, ok := m.sessions[token]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	data, err := m.slots.Get(ctx, slotPrefix+token)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return nil, pkgerrors.ErrUnauthorized
	case err != nil:
		return nil, err
	}
	rec, err := unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrUnauthorized, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	if m.ctx.Err() != nil {
		return nil, view.ErrClosed
	}
	m.logger.Info("Session restored", slog.String("username", rec.Username), slog.String("role", string(rec.Role)))

	return m.open(rec), nil
}

func (m *Manager) Logout(ctx context.Context, token string) error {
	if err := m.slots.Delete(ctx, slotPrefix+token); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return err
	}

	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	s.view.Stop()
	m.logger.Info("Session closed", slog.String("username", s.Username), slog.String("role", string(s.Role)))

	return nil
}

// Close stops every live view. Persisted records are kept.
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancel()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.view.Stop()
	}
}
