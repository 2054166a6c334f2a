package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override read by LoadOptions
const EnvPrefix = "AUTH_CLIENT_"

// Options is the concrete Config, loadable from YAML and the environment.
type Options struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	LoginPath     string        `yaml:"login_path"`
	DefaultRoute  string        `yaml:"default_route"`
	RedirectParam string        `yaml:"redirect_param"`
	TokenKey      string        `yaml:"token_key"`
	IdentityKey   string        `yaml:"identity_key"`
	SessionFile   string        `yaml:"session_file"`
	SQLiteDSN     string        `yaml:"sqlite_dsn"`
	RedisURL      string        `yaml:"redis_url"`
}

var _ Config = Options{}

// DefaultOptions returns the defaults used when nothing is configured
func DefaultOptions() Options {
	return Options{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		LoginPath:     DefaultLoginPath,
		DefaultRoute:  DefaultLandingRoute,
		RedirectParam: DefaultRedirectParam,
		TokenKey:      DefaultTokenKey,
		IdentityKey:   DefaultIdentityKey,
	}
}

// LoadOptions reads the YAML file at path when it is not empty, then
// applies AUTH_CLIENT_* environment overrides and validates the result.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &opts); err != nil {
			return opts, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := opts.applyEnv(os.Getenv); err != nil {
		return opts, err
	}

	opts.fillDefaults()

	if err := opts.Validate(); err != nil {
		return opts, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid config")
	}
	return opts, nil
}

func (o *Options) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"BASE_URL":       &o.BaseURL,
		"LOGIN_PATH":     &o.LoginPath,
		"DEFAULT_ROUTE":  &o.DefaultRoute,
		"REDIRECT_PARAM": &o.RedirectParam,
		"TOKEN_KEY":      &o.TokenKey,
		"IDENTITY_KEY":   &o.IdentityKey,
		"SESSION_FILE":   &o.SessionFile,
		"SQLITE_DSN":     &o.SQLiteDSN,
		"REDIS_URL":      &o.RedisURL,
	}
	for name, dst := range str {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(getenv(EnvPrefix + "TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			secs, convErr := strconv.Atoi(v)
			if convErr != nil {
				return fmt.Errorf("parse %sTIMEOUT %q: %w", EnvPrefix, v, err)
			}
			d = time.Duration(secs) * time.Second
		}
		o.Timeout = d
	}
	return nil
}

func (o *Options) fillDefaults() {
	def := DefaultOptions()
	if o.BaseURL == "" {
		o.BaseURL = def.BaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.LoginPath == "" {
		o.LoginPath = def.LoginPath
	}
	if o.DefaultRoute == "" {
		o.DefaultRoute = def.DefaultRoute
	}
	if o.RedirectParam == "" {
		o.RedirectParam = def.RedirectParam
	}
	if o.TokenKey == "" {
		o.TokenKey = def.TokenKey
	}
	if o.IdentityKey == "" {
		o.IdentityKey = def.IdentityKey
	}
}

// Validate checks the options
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.BaseURL, validation.Required, is.URL),
		validation.Field(&o.Timeout, validation.Required),
		validation.Field(&o.LoginPath, validation.Required, validation.By(startsWithSlash)),
		validation.Field(&o.DefaultRoute, validation.Required, validation.By(startsWithSlash)),
		validation.Field(&o.RedirectParam, validation.Required),
		validation.Field(&o.TokenKey, validation.Required),
		validation.Field(&o.IdentityKey, validation.Required, validation.By(differentFrom(o.TokenKey))),
	)
}

func startsWithSlash(value any) error {
	s, _ := value.(string)
	if !isLocalPath(s) {
		return fmt.Errorf("must be a path starting with /")
	}
	return nil
}

func differentFrom(other string) validation.RuleFunc {
	return func(value any) error {
		if s, _ := value.(string); s == other {
			return fmt.Errorf("must differ from token key")
		}
		return nil
	}
}

func (o Options) GetBaseURL() string {
	return o.BaseURL
}

func (o Options) GetTimeout() time.Duration {
	return o.Timeout
}

func (o Options) GetLoginPath() string {
	return o.LoginPath
}

func (o Options) GetDefaultRoute() string {
	return o.DefaultRoute
}

func (o Options) GetRedirectParam() string {
	return o.RedirectParam
}

func (o Options) GetTokenKey() string {
	return o.TokenKey
}

func (o Options) GetIdentityKey() string {
	return o.IdentityKey
}
