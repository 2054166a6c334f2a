package auth

// LoggerProvider hands out named loggers, one per component
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// LoggerProviderFunc adapts a function into a LoggerProvider
type LoggerProviderFunc func(name string) Logger

func (f LoggerProviderFunc) GetLogger(name string) Logger {
	return f(name)
}

// Logger names requested by each component
const (
	LoggerNameSession = "auth.session"
	LoggerNameGuard   = "auth.guard"
	LoggerNameRouter  = "auth.router"
	LoggerNameClient  = "auth.client"
)

type fixedProvider struct {
	logger Logger
}

func (p fixedProvider) GetLogger(string) Logger {
	return p.logger
}

// ResolveLogger returns the logger provider gives for name. When provider is
// nil or returns nil, logger is used instead and the returned provider hands
// it out for every name. A nil logger falls back to the default one.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if logger == nil {
		logger = defLogger{}
	}

	if provider != nil {
		if named := provider.GetLogger(name); named != nil {
			return provider, named
		}
	}

	return fixedProvider{logger: logger}, logger
}
