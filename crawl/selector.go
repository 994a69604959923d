package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fairuse/webarchive/selector"
	"github.com/fairuse/webarchive/zipstore"
)

// ResolveBackends resolves cfg's configured source templates into opened
// zipstore.Backend values, the archive selector (component F) wired
// against the rest of the configuration: each entry in cfg.SourceURIs()
// is a URI template, enumerated by a FileResolver rooted at the
// template's static prefix, narrowed to one candidate via the strategy
// named by cfg.WaczLookupStrategy, and finally opened as a Backend.
func ResolveBackends(ctx context.Context, cfg *Config, spiderName string, registry *selector.Registry) ([]zipstore.Backend, error) {
	uris, err := ResolveSourceURIs(ctx, cfg, spiderName, registry)
	if err != nil {
		return nil, err
	}

	backends := make([]zipstore.Backend, 0, len(uris))
	for _, uri := range uris {
		backend, err := openBackend(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("crawl: open archive source %s: %w", uri, err)
		}
		backends = append(backends, backend)
	}
	return backends, nil
}

// ResolveSourceURIs applies the archive selector to every entry in
// cfg.SourceURIs(), returning the one resolved file URI each template
// picks out. A template with no placeholder names its candidate
// directly, per the archive selector's edge case for a literal template.
func ResolveSourceURIs(ctx context.Context, cfg *Config, spiderName string, registry *selector.Registry) ([]string, error) {
	strategy, err := registry.Get(cfg.WaczLookupStrategy)
	if err != nil {
		return nil, fmt.Errorf("crawl: resolve lookup strategy %q: %w", cfg.WaczLookupStrategy, err)
	}

	target := cfg.WaczLookupTarget
	if target.IsZero() {
		target = defaultClock()
	}

	var resolved []string
	for _, tmpl := range cfg.SourceURIs() {
		uri, err := resolveOne(ctx, tmpl, spiderName, strategy, target)
		if err != nil {
			return nil, err
		}
		if uri == "" {
			continue
		}
		resolved = append(resolved, uri)
	}
	return resolved, nil
}

func resolveOne(ctx context.Context, tmpl, spiderName string, strategy selector.Strategy, target time.Time) (string, error) {
	if !selector.HasPlaceholder(tmpl) {
		return tmpl, nil
	}

	resolver, err := newFileResolver(ctx, tmpl, spiderName)
	if err != nil {
		return "", err
	}

	files, err := resolver.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("crawl: enumerate source template %q: %w", tmpl, err)
	}
	if len(files) == 0 {
		return "", nil
	}

	picked, ok := strategy.Find(files, target)
	if !ok {
		return "", nil
	}
	return picked.URI, nil
}

// newFileResolver builds the FileResolver for tmpl, matching how much of
// the static prefix each backend's candidate path already embeds: an
// S3Lister matches the object's full key (bucket name aside), so only
// the "s3://bucket/" scheme+host portion is stripped before compiling
// the pattern; a LocalWalker matches paths relative to its root
// directory, so the whole static prefix is stripped and used as that
// root instead.
func newFileResolver(ctx context.Context, tmpl, spiderName string) (selector.FileResolver, error) {
	prefix := selector.StaticPrefix(tmpl)

	if strings.HasPrefix(prefix, "s3://") {
		u, err := url.Parse(prefix)
		if err != nil {
			return nil, fmt.Errorf("crawl: parse s3 template prefix %q: %w", prefix, err)
		}
		keyTemplate := strings.TrimPrefix(tmpl, "s3://"+u.Host+"/")
		pattern, err := selector.CompileTemplate(keyTemplate, spiderName)
		if err != nil {
			return nil, fmt.Errorf("crawl: compile source template %q: %w", tmpl, err)
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("crawl: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return selector.NewS3Lister(client, u.Host, pattern), nil
	}

	basePath := strings.TrimPrefix(prefix, "file://")
	relTemplate := strings.TrimPrefix(tmpl, prefix)
	pattern, err := selector.CompileTemplate(relTemplate, spiderName)
	if err != nil {
		return nil, fmt.Errorf("crawl: compile source template %q: %w", tmpl, err)
	}
	return selector.NewLocalWalker(basePath, pattern), nil
}

// openBackend opens uri (as resolved by ResolveSourceURIs) as a
// zipstore.Backend: a local path via zipstore.OpenLocal, or an
// "s3://bucket/key" URI via a retrying, ranged S3 fetcher.
func openBackend(ctx context.Context, uri string) (zipstore.Backend, error) {
	if strings.HasPrefix(uri, "s3://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("crawl: parse s3 uri %q: %w", uri, err)
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("crawl: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		fetcher := zipstore.NewS3RangeFetcher(client, u.Host, strings.TrimPrefix(u.Path, "/"))
		return zipstore.OpenRanged(ctx, zipstore.NewRetryingFetcher(fetcher))
	}

	return zipstore.OpenLocal(strings.TrimPrefix(uri, "file://"))
}
