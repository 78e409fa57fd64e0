package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

type attemptKey struct{}

// WithAttempt marks ctx as carrying the n-th attempt of a logical request.
// Only the first attempt of a request tears the session down on 401, so
// caller-driven retries do not clear a session restored in between.
func WithAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, attemptKey{}, n)
}

func attemptFrom(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok && n > 0 {
		return n
	}
	return 1
}

// authTransport injects the stored bearer token into every request bound
// for origin and clears the stored session on a first-attempt 401 from it.
// Redirect hops to any other scheme or host go out without the token.
type authTransport struct {
	base    http.RoundTripper
	origin  *url.URL
	storage Storage
	logger  zerolog.Logger
}

func (t *authTransport) sameOrigin(u *url.URL) bool {
	if t.origin == nil || u == nil {
		return false
	}
	return strings.EqualFold(u.Scheme, t.origin.Scheme) && strings.EqualFold(u.Host, t.origin.Host)
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	out := req.Clone(ctx)
	out.Header.Del("Authorization")
	if !t.sameOrigin(out.URL) {
		t.logger.Debug().Str("host", out.URL.Host).Msg("Foreign host, sending request without credentials")
		return t.base.RoundTrip(out)
	}

	token, ok, err := t.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		// Fail open: the backend decides whether the call needs auth.
		t.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Read access token failed, sending request without it")
	}

	if err == nil && ok && token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && attemptFrom(ctx) == 1 {
		t.clearSession(ctx)
	}
	return resp, nil
}

func (t *authTransport) clearSession(ctx context.Context) {
	// Session teardown must not be skipped because the request was cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, key := range []string{KeyAccessToken, KeyCurrentUser} {
		if err := t.storage.Delete(ctx, key); err != nil {
			t.logger.Error().Err(err).Str("key", key).Msg("Clear stored session failed")
		}
	}
	t.logger.Info().Msg("Session cleared after 401")
}
