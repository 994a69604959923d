package crawl

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrUnsupportedScheme is returned by Config.Validate for an export
// scheme this module doesn't implement a backend for.
var ErrUnsupportedScheme = fmt.Errorf("%w: unsupported export scheme", ErrMisconfigured)

// ErrMisconfigured covers any Config validation failure — a source
// wired to a scheme or combination this module can't act on, the same
// "raise NotConfigured, let the host skip this middleware" contract
// BaseWaczMiddleware.__init__ gives Scrapy.
var ErrMisconfigured = fmt.Errorf("crawl: misconfigured")

// schemeSupport records which export/source schemes this module
// actually implements a backend for. gs and ftp are recognized (so a
// typo reads as "unsupported", not "unknown") but return
// ErrUnsupportedScheme: wiring every cloud SDK in the ecosystem is out
// of scope, and no pack example reaches for GCS or FTP in this domain.
var schemeSupport = map[string]bool{
	"file": true,
	"s3":   true,
	"gs":   false,
	"ftp":  false,
}

// Config is the Go surface for this module's external configuration
// table, bound with viper the way fairuse-warc's CLI binds flags/env.
type Config struct {
	ExportURI          string        `mapstructure:"export_uri"`
	WaczSourceURI      string        `mapstructure:"wacz_source_uri"`
	WaczCrawl          bool          `mapstructure:"wacz_crawl"`
	WaczTimeout        time.Duration `mapstructure:"wacz_timeout"`
	WaczLookupTarget   time.Time     `mapstructure:"-"`
	WaczLookupStrategy string        `mapstructure:"wacz_lookup_strategy"`
	WaczTitle          string        `mapstructure:"wacz_title"`
	WaczDescription    string        `mapstructure:"wacz_description"`
}

// LoadConfig reads the crawl configuration surface from v, applying the
// same defaults the original source's settings defaults express
// (SW_WACZ_TIMEOUT=60, SW_WACZ_LOOKUP_STRATEGY=after).
func LoadConfig(v *viper.Viper) (*Config, error) {
	v.SetDefault("wacz_timeout", 60*time.Second)
	v.SetDefault("wacz_lookup_strategy", "after")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("crawl: unmarshal config: %w", err)
	}

	if raw := v.GetString("wacz_lookup_target"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("crawl: parse wacz_lookup_target %q: %w", raw, err)
		}
		cfg.WaczLookupTarget = t
	}

	return cfg, nil
}

// SourceURIs splits WaczSourceURI on commas, matching
// BaseWaczMiddleware's re.split(r"\s*,\s*", wacz_uri).
func (c *Config) SourceURIs() []string {
	if c.WaczSourceURI == "" {
		return nil
	}
	parts := strings.Split(c.WaczSourceURI, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Validate checks that ExportURI (when set) names a scheme this module
// implements.
func (c *Config) Validate() error {
	if c.ExportURI == "" {
		return nil
	}
	scheme := schemeOf(c.ExportURI)
	supported, known := schemeSupport[scheme]
	if !known {
		return fmt.Errorf("%w: %q", ErrMisconfigured, scheme)
	}
	if !supported {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return nil
}

func schemeOf(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[:i]
	}
	return "file"
}
