package upload

import (
	"context"
	"errors"
	"time"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/infra"
)

// InlineBackend names the terminal fallback that embeds the payload.
const InlineBackend = "inline"

// Backend exposes a payload at a public URL.
type Backend interface {
	Name() string
	Upload(ctx context.Context, payload domain.Payload) (string, error)
}

// Releaser is implemented by backends whose uploads can be removed once the
// provider no longer needs them.
type Releaser interface {
	Release(ctx context.Context, url string) error
}

// Attempt records one backend try.
type Attempt struct {
	Backend  string
	URL      string
	Err      error
	Duration time.Duration
}

// Result is the outcome of resolving one payload. Attempts lists every backend
// tried in order, including the successful one.
type Result struct {
	URL      string
	Backend  string
	Inline   bool
	Attempts []Attempt
}

// Failures returns the failed attempts.
func (r Result) Failures() []Attempt {
	var out []Attempt
	for _, a := range r.Attempts {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Asset converts the result into the domain record for payload.
func (r Result) Asset(payload domain.Payload) domain.UploadedAsset {
	asset := domain.UploadedAsset{Original: payload, URL: r.URL, Backend: r.Backend}
	for _, a := range r.Failures() {
		asset.Failed = append(asset.Failed, domain.UploadFailure{Backend: a.Backend, Reason: a.Err.Error()})
	}
	return asset
}

// Options configures a Resolver.
type Options struct {
	AttemptTimeout time.Duration
	Logger         *infra.Logger
}

// Resolver walks an ordered chain of backends. It never caches: resolving the
// same payload twice uploads it twice.
type Resolver struct {
	backends       []Backend
	attemptTimeout time.Duration
	logger         *infra.Logger
}

func NewResolver(backends []Backend, opts Options) *Resolver {
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{
		backends:       append([]Backend(nil), backends...),
		attemptTimeout: timeout,
		logger:         infra.OrDiscard(opts.Logger),
	}
}

// Backends returns the configured backend names in order.
func (r *Resolver) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, b.Name())
	}
	return names
}

// Resolve returns the first URL any backend produces. When every backend
// fails, or ctx is done, the payload is returned inline as a data URI.
func (r *Resolver) Resolve(ctx context.Context, payload domain.Payload) Result {
	var res Result
	for _, b := range r.backends {
		if ctx.Err() != nil {
			break
		}
		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		start := time.Now()
		url, err := b.Upload(attemptCtx, payload)
		cancel()
		if err == nil && url == "" {
			err = errors.New("backend returned no url")
		}
		attempt := Attempt{Backend: b.Name(), URL: url, Err: err, Duration: time.Since(start)}
		res.Attempts = append(res.Attempts, attempt)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("backend", b.Name()).
				Dur("duration", attempt.Duration).
				Msg("upload: backend failed, trying next")
			continue
		}
		res.URL = url
		res.Backend = b.Name()
		r.logger.Debug().
			Str("backend", b.Name()).
			Int("attempts", len(res.Attempts)).
			Msg("upload: payload exposed")
		return res
	}

	res.URL = payload.DataURI()
	res.Backend = InlineBackend
	res.Inline = true
	r.logger.Warn().
		Int("attempts", len(res.Attempts)).
		Int("bytes", len(payload.Data)).
		Msg("upload: all backends failed, sending payload inline")
	return res
}

// Release removes uploads whose backend supports it. Failures are logged and
// otherwise ignored.
func (r *Resolver) Release(ctx context.Context, assets []domain.UploadedAsset) {
	for _, a := range assets {
		for _, b := range r.backends {
			rel, ok := b.(Releaser)
			if !ok || b.Name() != a.Backend {
				continue
			}
			if err := rel.Release(ctx, a.URL); err != nil {
				r.logger.Warn().Err(err).Str("backend", a.Backend).Msg("upload: release failed")
			}
			break
		}
	}
}
