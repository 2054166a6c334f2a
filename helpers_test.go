package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

// signToken signs claims with HS256. The client never checks the signature
// but a real token keeps the fixtures honest.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

func tokenFor(t *testing.T, userID, nickname string, exp time.Time) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{
		"user_id":  userID,
		"nickname": nickname,
		"exp":      exp.Unix(),
	})
}

// MockAuthenticator mocks the login collaborator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, credentials auth.Credentials) (*auth.AuthToken, error) {
	args := m.Called(ctx, credentials)
	token, _ := args.Get(0).(*auth.AuthToken)
	return token, args.Error(1)
}

// failingStorage wraps a storage and fails the selected operations
type failingStorage struct {
	auth.Storage
	getErr    error
	setErr    error
	deleteErr error
	// failKey limits setErr to writes of this key
	failKey string
}

func (f *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Storage.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil && (f.failKey == "" || f.failKey == key) {
		return f.setErr
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *failingStorage) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Storage.Delete(ctx, key)
}

var errStorage = errors.New("storage unavailable")

type logCall struct {
	level   string
	message string
	args    []any
}

// captureLogger records every log call
type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) levels(level string) []logCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logCall
	for _, c := range l.calls {
		if c.level == level {
			out = append(out, c)
		}
	}
	return out
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// recordingNotifier collects notices
type recordingNotifier struct {
	mu      sync.Mutex
	notices []auth.Notice
}

func (n *recordingNotifier) Notify(notice auth.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []auth.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]auth.Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// fixedClock returns a clock frozen at now
func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
