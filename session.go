package auth

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-auth-client/storage/memory"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const (
	// DefaultTokenKey is the persisted record key holding the raw token
	DefaultTokenKey = "auth_token"
	// DefaultIdentityKey is the persisted record key holding the serialized identity
	DefaultIdentityKey = "user_info"
)

// SessionState is a point in time copy of the session.
type SessionState struct {
	Token    string
	Identity *Identity
}

// Authenticated reports whether the state holds a token
func (s SessionState) Authenticated() bool {
	return s.Token != ""
}

// SessionStore owns the client session: the token, the identity decoded from
// it and the persisted copy of both. Token and identity are always replaced
// together.
type SessionStore struct {
	mu       sync.RWMutex
	token    string
	identity *Identity

	auth        Authenticator
	storage     Storage
	tokenKey    string
	identityKey string
	now         func() time.Time
	logger      Logger
	activity    ActivitySink
}

// SessionOption configures a SessionStore
type SessionOption func(*SessionStore)

// WithLogger sets the logger
func WithLogger(logger Logger) SessionOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoggerProvider takes the session logger from provider
func WithLoggerProvider(provider LoggerProvider) SessionOption {
	return func(s *SessionStore) {
		_, s.logger = ResolveLogger(LoggerNameSession, provider, s.logger)
	}
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithActivitySink registers a sink for session lifecycle events
func WithActivitySink(sink ActivitySink) SessionOption {
	return func(s *SessionStore) {
		s.activity = normalizeActivitySink(sink)
	}
}

// WithStorageKeys overrides the persisted record key names
func WithStorageKeys(tokenKey, identityKey string) SessionOption {
	return func(s *SessionStore) {
		if tokenKey != "" {
			s.tokenKey = tokenKey
		}
		if identityKey != "" {
			s.identityKey = identityKey
		}
	}
}

// WithSessionConfig applies the storage keys from cfg
func WithSessionConfig(cfg Config) SessionOption {
	return func(s *SessionStore) {
		if cfg == nil {
			return
		}
		WithStorageKeys(cfg.GetTokenKey(), cfg.GetIdentityKey())(s)
	}
}

// NewSessionStore creates an empty session. A nil storage keeps the
// persisted record in memory only.
func NewSessionStore(auther Authenticator, storage Storage, opts ...SessionOption) *SessionStore {
	if storage == nil {
		storage = memory.New()
	}

	s := &SessionStore{
		auth:        auther,
		storage:     storage,
		tokenKey:    DefaultTokenKey,
		identityKey: DefaultIdentityKey,
		now:         time.Now,
		logger:      defLogger{},
		activity:    noopActivitySink{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetAuthenticator replaces the login collaborator. It lets an HTTP
// authenticator be built on a client that already holds this session.
func (s *SessionStore) SetAuthenticator(auther Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auther
}

// Initialize restores the session from the persisted record. It must run
// before the first navigation. A record that cannot be decoded, or whose
// token has expired, is discarded.
func (s *SessionStore) Initialize(ctx context.Context) {
	token, foundToken, err := s.storage.Get(ctx, s.tokenKey)
	if err != nil {
		s.logger.Error("Session restore failed reading token", "error", err)
		return
	}

	rawIdentity, foundIdentity, err := s.storage.Get(ctx, s.identityKey)
	if err != nil {
		s.logger.Error("Session restore failed reading identity", "error", err)
		return
	}

	if !foundToken || !foundIdentity || token == "" || rawIdentity == "" {
		s.logger.Debug("No persisted session found")
		return
	}

	claims, err := DecodeToken(token)
	if err != nil {
		s.logger.Info("Discarding persisted session", "reason", "decode", "error", err)
		s.Logout(ctx)
		return
	}

	identity, err := unmarshalIdentity(rawIdentity)
	if err != nil {
		s.logger.Info("Discarding persisted session", "reason", "identity", "error", err)
		s.Logout(ctx)
		return
	}

	if claims.ExpiredAt(s.now()) {
		s.logger.Info("Discarding persisted session", "reason", "expired", "exp", claims.Expires())
		s.record(ctx, ActivityEventSessionExpired, identity, nil)
		s.Logout(ctx)
		return
	}

	s.mu.Lock()
	s.token = token
	s.identity = &identity
	s.mu.Unlock()

	s.logger.Debug("Session restored", "identity", print.MaybePrettyJSON(identity))
	s.record(ctx, ActivityEventSessionRestored, identity, map[string]any{
		"expires_at": claims.Expires(),
	})
}

// Login exchanges credentials for a token, persists it and makes it the
// current session. Errors from the authenticator are returned unchanged and
// leave the session untouched.
func (s *SessionStore) Login(ctx context.Context, credentials Credentials) error {
	if err := credentials.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid credentials")
	}

	s.mu.RLock()
	auther := s.auth
	s.mu.RUnlock()

	if auther == nil {
		return goerrors.New("login: authenticator is required", goerrors.CategoryInternal).
			WithTextCode(TextCodeMissingAuth)
	}

	resp, err := auther.Login(ctx, credentials)
	if err != nil {
		s.logger.Error("Login error", "error", err)
		s.record(ctx, ActivityEventLoginFailure, Identity{Nickname: credentials.Nickname}, map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if resp == nil {
		return decodeError("empty login response", nil)
	}

	claims, err := DecodeToken(resp.Token)
	if err != nil {
		s.logger.Error("Login returned an unreadable token", "error", err)
		return err
	}

	identity := claims.Identity()
	if err := s.persist(ctx, s.Token(), resp.Token, identity); err != nil {
		s.logger.Error("Login could not persist session", "error", err)
		return err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.identity = &identity
	s.mu.Unlock()

	s.logger.Info("Login success", "user", identity.UserID, "nickname", identity.Nickname)
	s.record(ctx, ActivityEventLoginSuccess, identity, map[string]any{
		"expires_at": claims.Expires(),
	})

	return nil
}

// Logout clears the session and the persisted record. Calling it without a
// session is a no-op; storage errors are logged, never returned.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	previous := s.identity
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	s.clearPersisted(ctx)

	if previous != nil {
		s.logger.Info("Logout", "user", previous.UserID)
		s.record(ctx, ActivityEventLogout, *previous, nil)
	}
}

// IsAuthenticated reports whether a token is held. Expiry is not checked
// here, see CheckTokenExpiry.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// CheckTokenExpiry reports whether the held token is still usable. An
// expired or undecodable token ends the session.
func (s *SessionStore) CheckTokenExpiry(ctx context.Context) bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return false
	}

	claims, err := DecodeToken(token)
	if err != nil {
		s.logger.Info("Session token unreadable, logging out", "error", err)
		s.endSession(ctx, token, ActivityEventLogout)
		return false
	}

	if claims.ExpiredAt(s.now()) {
		s.logger.Info("Session token expired, logging out", "exp", claims.Expires())
		s.endSession(ctx, token, ActivityEventSessionExpired)
		return false
	}

	return true
}

// Token returns the current token or an empty string
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the current identity
func (s *SessionStore) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// ExpiresAt returns the expiry of the current token, zero without a session
func (s *SessionStore) ExpiresAt() time.Time {
	token := s.Token()
	if token == "" {
		return time.Time{}
	}
	claims, err := DecodeToken(token)
	if err != nil {
		return time.Time{}
	}
	return claims.Expires()
}

// Snapshot returns a copy of the current state
func (s *SessionStore) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := SessionState{Token: s.token}
	if s.identity != nil {
		identity := *s.identity
		state.Identity = &identity
	}
	return state
}

// endSession clears the session only if it still holds token, so a login
// that completed in between is not discarded.
func (s *SessionStore) endSession(ctx context.Context, token string, event ActivityEventType) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return
	}
	previous := s.identity
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	s.clearPersisted(ctx)

	if previous != nil {
		s.record(ctx, event, *previous, nil)
	}
}

// persist writes the token then the identity. If the identity write fails
// the token key is rolled back to previous, so the record persisted by the
// current session is left as it was.
func (s *SessionStore) persist(ctx context.Context, previous, token string, identity Identity) error {
	rawIdentity, err := marshalIdentity(identity)
	if err != nil {
		return err
	}

	if err := s.storage.Set(ctx, s.tokenKey, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "persist token")
	}

	if err := s.storage.Set(ctx, s.identityKey, rawIdentity); err != nil {
		s.rollbackToken(ctx, previous)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "persist identity")
	}

	return nil
}

func (s *SessionStore) rollbackToken(ctx context.Context, previous string) {
	var err error
	if previous == "" {
		err = s.storage.Delete(ctx, s.tokenKey)
	} else {
		err = s.storage.Set(ctx, s.tokenKey, previous)
	}
	if err != nil {
		s.logger.Error("Failed to roll back persisted token", "key", s.tokenKey, "error", err)
	}
}

func (s *SessionStore) clearPersisted(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.tokenKey); err != nil {
		s.logger.Error("Failed to remove persisted token", "key", s.tokenKey, "error", err)
	}
	if err := s.storage.Delete(ctx, s.identityKey); err != nil {
		s.logger.Error("Failed to remove persisted identity", "key", s.identityKey, "error", err)
	}
}

func (s *SessionStore) record(ctx context.Context, eventType ActivityEventType, identity Identity, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     identity.UserID,
		Nickname:   identity.Nickname,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Error("Activity sink error", "event", eventType, "error", err)
	}
}
