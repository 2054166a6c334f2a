package main

import (
	auth "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

// newLoggers builds the named loggers handed to every component. Without
// verbose only warnings and errors are written.
func newLoggers(verbose bool) auth.LoggerProvider {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("authctl"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	return levelProvider(verbose, func(name string) auth.Logger {
		return lgr.GetLogger(name)
	})
}

func levelProvider(verbose bool, get func(name string) auth.Logger) auth.LoggerProvider {
	return auth.LoggerProviderFunc(func(name string) auth.Logger {
		named := get(name)
		if named == nil || verbose {
			return named
		}
		return quietLogger{Logger: named}
	})
}

// quietLogger drops debug and info entries
type quietLogger struct {
	auth.Logger
}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
