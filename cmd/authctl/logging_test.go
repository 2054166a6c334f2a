package main

import (
	"testing"

	auth "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type levelRecorder struct {
	levels []string
}

func (r *levelRecorder) Debug(string, ...any) { r.levels = append(r.levels, "debug") }
func (r *levelRecorder) Info(string, ...any)  { r.levels = append(r.levels, "info") }
func (r *levelRecorder) Warn(string, ...any)  { r.levels = append(r.levels, "warn") }
func (r *levelRecorder) Error(string, ...any) { r.levels = append(r.levels, "error") }

func emitAll(logger auth.Logger) {
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
}

func TestLevelProvider(t *testing.T) {
	t.Run("verbose keeps every level", func(t *testing.T) {
		rec := &levelRecorder{}
		var names []string
		provider := levelProvider(true, func(name string) auth.Logger {
			names = append(names, name)
			return rec
		})

		emitAll(provider.GetLogger(auth.LoggerNameSession))
		assert.Equal(t, []string{"debug", "info", "warn", "error"}, rec.levels)
		assert.Equal(t, []string{auth.LoggerNameSession}, names)
	})

	t.Run("quiet keeps warnings and errors", func(t *testing.T) {
		rec := &levelRecorder{}
		provider := levelProvider(false, func(string) auth.Logger { return rec })

		emitAll(provider.GetLogger(auth.LoggerNameClient))
		assert.Equal(t, []string{"warn", "error"}, rec.levels)
	})

	t.Run("nil logger is passed through", func(t *testing.T) {
		provider := levelProvider(false, func(string) auth.Logger { return nil })
		assert.Nil(t, provider.GetLogger(auth.LoggerNameGuard))
	})
}

func TestNewLoggers(t *testing.T) {
	for _, verbose := range []bool{true, false} {
		provider := newLoggers(verbose)
		logger := provider.GetLogger(auth.LoggerNameRouter)
		require.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Debug("Navigated", "requested", "/tasks") })
	}
}
