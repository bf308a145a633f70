package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/draftkit/component"
	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/logger"
)

// Account is a connected wallet.
type Account struct {
	Address     string    `json:"address"`
	Network     string    `json:"network"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Connector talks to the wallet provider.
type Connector interface {
	Connect(ctx context.Context) (Account, error)
	Disconnect(ctx context.Context, account Account) error
}

// Option configures a Session.
type Option func(*Session)

// WithStore sets the kv.Store used when Config.Persist is enabled.
func WithStore(store kv.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithClock overrides time.Now for ConnectedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

const connectCall = "connect"

// Session is the owned wallet session service. Create one per user
// context; there is no package-level state.
type Session struct {
	connector Connector
	store     kv.Store
	cfg       Config
	log       *logger.Logger
	now       func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	account  *Account
	ready    bool
	disposed bool
}

// NewSession creates a Session. Call Init before use.
func NewSession(connector Connector, cfg Config, log *logger.Logger, opts ...Option) (*Session, error) {
	if connector == nil {
		return nil, fmt.Errorf("wallet: connector is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		connector: connector,
		cfg:       cfg,
		log:       log.WithComponent("wallet"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Persist && s.store == nil {
		return nil, fmt.Errorf("wallet: persist requires a store (use WithStore)")
	}
	return s, nil
}

// Init restores a persisted account, if any. A stored value that does not
// decode is discarded.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return errors.ServiceUnavailable("wallet")
	}
	if s.ready {
		return nil
	}
	if s.cfg.Persist {
		raw, ok, err := s.store.Get(ctx, s.cfg.PersistKey)
		if err != nil {
			return fmt.Errorf("wallet: restore session: %w", err)
		}
		if ok {
			var acc Account
			if err := json.Unmarshal([]byte(raw), &acc); err != nil || acc.Address == "" {
				s.log.Warn("Discarding unreadable wallet session", map[string]interface{}{"key": s.cfg.PersistKey})
			} else {
				s.account = &acc
				s.log.Debug("Wallet session restored", map[string]interface{}{"network": acc.Network})
			}
		}
	}
	s.ready = true
	return nil
}

// Account returns the cached account.
func (s *Session) Account() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return Account{}, false
	}
	return *s.account, true
}

func (s *Session) usable() error {
	if s.disposed {
		return errors.ServiceUnavailable("wallet")
	}
	if !s.ready {
		return errors.New(errors.ErrCodeNotLoaded, "Wallet session has not been initialized.", http.StatusConflict)
	}
	return nil
}

// Connect returns the cached account or connects. Concurrent callers share
// one connection attempt; a caller whose ctx ends stops waiting without
// cancelling the attempt for the others.
func (s *Session) Connect(ctx context.Context) (Account, error) {
	s.mu.RLock()
	err := s.usable()
	cached := s.account
	s.mu.RUnlock()
	if err != nil {
		return Account{}, err
	}
	if cached != nil {
		return *cached, nil
	}

	ch := s.group.DoChan(connectCall, func() (interface{}, error) {
		return s.connect(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Account{}, res.Err
		}
		return res.Val.(Account), nil
	case <-ctx.Done():
		return Account{}, ctx.Err()
	}
}

func (s *Session) connect(ctx context.Context) (Account, error) {
	// a flight that finished just before this one may already have connected
	if acc, ok := s.Account(); ok {
		return acc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	acc, err := s.connector.Connect(ctx)
	if err != nil {
		s.log.Error("Wallet connection failed", map[string]interface{}{"error": err.Error()})
		return Account{}, errors.ExternalServiceError("wallet", err)
	}
	if acc.Address == "" {
		return Account{}, errors.ExternalServiceError("wallet", fmt.Errorf("connector returned an empty address"))
	}
	if acc.ConnectedAt.IsZero() {
		acc.ConnectedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return Account{}, errors.ServiceUnavailable("wallet")
	}
	s.account = &acc
	if s.cfg.Persist {
		if err := s.persist(ctx, acc); err != nil {
			// the connection itself succeeded, keep it in memory
			s.log.Warn("Failed to persist wallet session", map[string]interface{}{"error": err.Error()})
		}
	}
	s.log.Info("Wallet connected", map[string]interface{}{"network": acc.Network})
	return acc, nil
}

func (s *Session) persist(ctx context.Context, acc Account) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.cfg.PersistKey, string(data))
}

// Disconnect drops the cached account, clears the persisted copy and asks
// the provider to disconnect.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	acc := s.account
	s.account = nil
	s.mu.Unlock()

	if s.cfg.Persist {
		if err := s.store.Delete(ctx, s.cfg.PersistKey); err != nil {
			return fmt.Errorf("wallet: clear session: %w", err)
		}
	}
	if acc == nil {
		return nil
	}
	if err := s.connector.Disconnect(ctx, *acc); err != nil {
		return errors.ExternalServiceError("wallet", err)
	}
	return nil
}

// Dispose releases the session. The persisted account is kept so the next
// session can restore it. Later calls fail.
func (s *Session) Dispose(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.account = nil
	return nil
}

var (
	_ component.Component   = (*Session)(nil)
	_ component.Describable = (*Session)(nil)
)

// Name returns the component name.
func (s *Session) Name() string { return "wallet" }

// Start initializes the session.
func (s *Session) Start(ctx context.Context) error { return s.Init(ctx) }

// Stop disposes the session.
func (s *Session) Stop(ctx context.Context) error { return s.Dispose(ctx) }

// Health reports whether the session is usable.
func (s *Session) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := component.Health{Name: s.Name(), Status: component.StatusHealthy, Message: "not connected"}
	switch {
	case s.disposed:
		h.Status = component.StatusUnhealthy
		h.Message = "disposed"
	case s.account != nil:
		h.Message = "connected to " + s.account.Network
	}
	return h
}

// Describe returns summary info for /info.
func (s *Session) Describe() component.Description {
	return component.Description{
		Name:    "Wallet",
		Type:    "session",
		Details: fmt.Sprintf("persist=%t timeout=%s", s.cfg.Persist, s.cfg.ConnectTimeout),
	}
}
