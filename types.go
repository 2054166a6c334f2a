package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Logger is the structured logger used across the package. Arguments after
// the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Authenticator exchanges credentials for a signed token.
type Authenticator interface {
	Login(ctx context.Context, credentials Credentials) (*AuthToken, error)
}

// Storage is the durable key/value store backing the persisted session
// record. Get reports found=false for missing keys instead of an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Navigator is the navigation collaborator used by the HTTP envelope to send
// the user back to the login page.
type Navigator interface {
	CurrentPath() string
	Push(ctx context.Context, to Location) error
}

// Notifier displays transient messages to the user.
type Notifier interface {
	Notify(notice Notice)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(notice Notice)

// Notify satisfies the Notifier interface.
func (f NotifierFunc) Notify(notice Notice) {
	if f == nil {
		return
	}
	f(notice)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetTimeout() time.Duration
	GetLoginPath() string
	GetDefaultRoute() string
	GetRedirectParam() string
	GetTokenKey() string
	GetIdentityKey() string
}

// defLogger is used when no logger or provider is configured. It writes to
// w, stdout when nil.
type defLogger struct {
	w io.Writer
}

func (d defLogger) out() io.Writer {
	if d.w == nil {
		return os.Stdout
	}
	return d.w
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Fprint(d.out(), "[DBG] AUTH "+format(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Fprint(d.out(), "[INF] AUTH "+format(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Fprint(d.out(), "[WRN] AUTH "+format(msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Fprint(d.out(), "[ERR] AUTH "+format(msg, args...))
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

func format(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
