package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/cactus-garden/garden"
	"github.com/jrsteele09/cactus-garden/internal/config"
	"github.com/jrsteele09/cactus-garden/retry"
	"github.com/jrsteele09/cactus-garden/server/authflowrepo"
	"github.com/jrsteele09/cactus-garden/server/loginsession"
	"github.com/jrsteele09/cactus-garden/session"
	"github.com/jrsteele09/cactus-garden/storage"
	"github.com/jrsteele09/cactus-garden/storage/memstore"
	"github.com/jrsteele09/cactus-garden/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	sweepInterval = time.Minute
	otpResendWait = 30 * time.Second
)

// Admin is the staff panel front end. Each signed-in browser owns one
// session.Manager, found through its session cookie.
type Admin struct {
	*Server
	sessions    loginsession.Repo
	flows       authflowrepo.Repo
	storage     storage.Storage
	managerOpts []session.ManagerOption
	policy      retry.Policy
	nowTime     func() time.Time
	sweepEvery  time.Duration
	bypass      bool
	devSession  loginsession.Session
}

// AdminOption defines a function type to modify the Admin instance.
type AdminOption func(*Admin)

// WithTokenStorage persists each session's access token in s, keyed by session id.
func WithTokenStorage(s storage.Storage) AdminOption {
	return func(a *Admin) {
		a.storage = s
	}
}

// WithManagerOptions adds options to every session.Manager the admin creates.
func WithManagerOptions(opts ...session.ManagerOption) AdminOption {
	return func(a *Admin) {
		a.managerOpts = append(a.managerOpts, opts...)
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AdminOption {
	return func(a *Admin) {
		a.nowTime = nowFunc
	}
}

// WithSweepInterval sets how often expired login sessions are swept.
func WithSweepInterval(d time.Duration) AdminOption {
	return func(a *Admin) {
		if d > 0 {
			a.sweepEvery = d
		}
	}
}

// NewAdmin creates the staff panel front end.
func NewAdmin(cfg config.Config, log zerolog.Logger, sessions loginsession.Repo, flows authflowrepo.Repo, options ...AdminOption) (*Admin, error) {
	if cfg == nil {
		return nil, errors.New("[Admin New] config is required")
	}
	if sessions == nil {
		return nil, errors.New("[Admin New] login session repo is required")
	}
	if flows == nil {
		return nil, errors.New("[Admin New] auth flow repo is required")
	}

	a := &Admin{
		Server:     newServer(cfg, log.With().Str("frontend", "admin").Logger()),
		sessions:   sessions,
		flows:      flows,
		storage:    memstore.New(),
		policy:     retry.FromConfig(cfg),
		nowTime:    time.Now,
		sweepEvery: sweepInterval,
		bypass:     cfg.GetBypassAuth(),
	}
	for _, opt := range options {
		opt(a)
	}

	if a.bypass {
		m, err := a.newManager("dev", session.WithDevBypass(true))
		if err != nil {
			return nil, errors.Wrap(err, "[Admin New] dev session")
		}
		if _, err := m.FetchCurrentUser(context.Background()); err != nil {
			return nil, errors.Wrap(err, "[Admin New] dev session")
		}
		a.devSession = loginsession.Session{ID: "dev", Email: "dev@localhost", Manager: m, CreatedAt: a.nowTime()}
		a.log.Warn().Msg("BYPASS_AUTH is on: admin routes are open")
	}

	a.initRoutes()
	a.logRoutes()
	return a, nil
}

// Run sweeps login sessions whose cookie lifetime has passed until ctx is done.
func (a *Admin) Run(ctx context.Context) {
	ticker := time.NewTicker(a.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.stopAll()
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

func (a *Admin) sweep() {
	for _, ls := range a.sessions.Expired(a.nowTime()) {
		a.log.Debug().Str("session", ls.ID).Msg("login session expired")
		release(ls)
	}
}

func (a *Admin) stopAll() {
	for _, ls := range a.sessions.DeleteAll() {
		release(ls)
	}
}

// release stops a removed login session's refresh loop and drops its token,
// including the copy in storage. The registry is memory only, so a stored
// token outliving its session could never be resumed.
func release(ls loginsession.Session) {
	if ls.Stop != nil {
		ls.Stop()
	}
	if ls.Manager != nil {
		ls.Manager.Discard()
	}
}

// newManager builds a session manager whose token is stored under the session's own key.
func (a *Admin) newManager(sessionID string, extra ...session.ManagerOption) (*session.Manager, error) {
	key := a.config.GetTokenStorageKey() + "_" + sessionID
	store := token.NewStore(a.storage, key, a.log)

	opts := []session.ManagerOption{
		session.WithLogger(a.log.With().Str("session", sessionID).Logger()),
		session.WithOnSessionCleared(func() { a.dropSession(sessionID, "session cleared") }),
	}
	opts = append(opts, a.managerOpts...)
	opts = append(opts, extra...)

	return session.New(a.config.GetAPIBaseURL(), store, a.config, opts...)
}

// startSession registers a signed-in manager and starts its refresh loop.
func (a *Admin) startSession(sessionID, email string, m *session.Manager) (loginsession.Session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	now := a.nowTime()
	ls := loginsession.Session{
		ID:        sessionID,
		Email:     email,
		Manager:   m,
		CreatedAt: now,
		ExpiresAt: now.Add(a.config.GetSessionMaxAge()),
		Stop:      cancel,
	}
	if err := a.sessions.Upsert(sessionID, ls); err != nil {
		cancel()
		return loginsession.Session{}, errors.Wrap(err, "[Admin startSession]")
	}

	go m.Run(ctx)
	return ls, nil
}

func (a *Admin) dropSession(sessionID, reason string) {
	ls, err := a.sessions.Delete(sessionID)
	if err != nil {
		return
	}
	a.log.Debug().Str("session", sessionID).Str("reason", reason).Msg("login session dropped")
	release(ls)
}

func (a *Admin) staffClient(ls loginsession.Session) (*garden.Client, error) {
	return garden.NewClient(a.config.GetAPIBaseURL(), garden.Staff, ls.Manager,
		garden.WithRetryPolicy(a.policy),
		garden.WithLogger(a.log),
	)
}

func newSessionID() string {
	return uuid.NewString()
}
