package httpclient

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables read by LoadSettings.
const EnvPrefix = "AUTHCLIENT"

// Settings is the file/environment form of the executor configuration.
//
// Keys (environment variable in parentheses):
//
//	base_url               (AUTHCLIENT_BASE_URL)
//	service_name           (AUTHCLIENT_SERVICE_NAME)
//	debug                  (AUTHCLIENT_DEBUG)
//	timeout                (AUTHCLIENT_TIMEOUT), e.g. "10s"
//	refresh.method         (AUTHCLIENT_REFRESH_METHOD)
//	refresh.url            (AUTHCLIENT_REFRESH_URL)
//	refresh.param          (AUTHCLIENT_REFRESH_PARAM)
//	refresh.access_field   (AUTHCLIENT_REFRESH_ACCESS_FIELD)
//	refresh.refresh_field  (AUTHCLIENT_REFRESH_REFRESH_FIELD)
//	refresh.coalesce       (AUTHCLIENT_REFRESH_COALESCE)
type Settings struct {
	BaseURL     string
	ServiceName string
	Debug       bool
	Timeout     time.Duration

	RefreshMethod       string
	RefreshURL          string
	RefreshParam        string
	RefreshAccessField  string
	RefreshRefreshField string
	RefreshCoalesce     bool
}

// LoadSettings reads Settings from v, with environment overrides.
//
// v is configured in place: defaults are registered and AUTHCLIENT_*
// environment variables are bound. A nil v uses a fresh viper instance.
//
// Example:
//
//	v := viper.New()
//	v.SetConfigFile("authclient.yaml")
//	_ = v.ReadInConfig()
//
//	settings, err := httpclient.LoadSettings(v)
//	if err != nil {
//	    return err
//	}
//	executor := httpclient.New(append(settings.Options(),
//	    httpclient.WithTokenStore(store),
//	)...)
func LoadSettings(v *viper.Viper) (Settings, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("base_url", "")
	v.SetDefault("service_name", "")
	v.SetDefault("debug", false)
	v.SetDefault("timeout", DefaultConfig().Timeout)
	v.SetDefault("refresh.method", http.MethodPost)
	v.SetDefault("refresh.url", DefaultRefreshURL)
	v.SetDefault("refresh.param", DefaultRefreshParam)
	v.SetDefault("refresh.access_field", DefaultAccessTokenField)
	v.SetDefault("refresh.refresh_field", DefaultRefreshTokenField)
	v.SetDefault("refresh.coalesce", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	s := Settings{
		BaseURL:             v.GetString("base_url"),
		ServiceName:         v.GetString("service_name"),
		Debug:               v.GetBool("debug"),
		Timeout:             v.GetDuration("timeout"),
		RefreshMethod:       strings.ToUpper(v.GetString("refresh.method")),
		RefreshURL:          v.GetString("refresh.url"),
		RefreshParam:        v.GetString("refresh.param"),
		RefreshAccessField:  v.GetString("refresh.access_field"),
		RefreshRefreshField: v.GetString("refresh.refresh_field"),
		RefreshCoalesce:     v.GetBool("refresh.coalesce"),
	}

	if err := NewRequest(s.RefreshMethod, s.RefreshURL).validate(); err != nil {
		return Settings{}, fmt.Errorf("httpclient: invalid refresh endpoint: %w", err)
	}
	if s.Timeout < 0 {
		return Settings{}, fmt.Errorf("httpclient: negative timeout %s", s.Timeout)
	}

	return s, nil
}

// Options converts the settings into executor options.
func (s Settings) Options() []Option {
	httpCfg := DefaultConfig()
	httpCfg.Timeout = s.Timeout

	opts := []Option{
		WithConfig(httpCfg),
		WithBaseURL(s.BaseURL),
		WithDebug(s.Debug),
		WithRefreshEndpoint(NewRequest(s.RefreshMethod, s.RefreshURL)),
		WithRefreshParam(s.RefreshParam),
		WithRefreshFields(s.RefreshAccessField, s.RefreshRefreshField),
	}
	if s.ServiceName != "" {
		opts = append(opts, WithServiceName(s.ServiceName))
	}
	if s.RefreshCoalesce {
		opts = append(opts, WithRefreshCoalescing())
	}
	return opts
}
