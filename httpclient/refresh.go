package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
)

// ErrRefreshFailed is logged when a refresh cycle cannot produce new tokens.
// Execute reports it to callers only as a 401 "Unauthorized" response.
var ErrRefreshFailed = errors.New("httpclient: token refresh failed")

// Refresh failure reasons recorded on authclient.refresh.failures.
const (
	reasonNoRefreshToken = "no_refresh_token"
	reasonBuild          = "build"
	reasonTransport      = "transport"
	reasonStatus         = "status"
	reasonDecode         = "decode"
	reasonIncomplete     = "incomplete"
	reasonStore          = "store"
)

// tokenPair is the outcome of a successful refresh call.
type tokenPair struct {
	access  string
	refresh string
}

// refresh exchanges the stored refresh token for a new token pair, persists
// it, and returns the new access token.
//
// On any failure nothing is written to the TokenStore.
func (e *Executor) refresh(ctx context.Context, c *call) (string, error) {
	c.span.AddEvent("token.refresh")

	refreshToken, err := e.store.RefreshToken(ctx)
	if err != nil {
		e.logger.Error(fmt.Errorf("httpclient: read refresh token: %w", err))
		refreshToken = ""
	}
	if refreshToken == "" {
		return "", e.refreshFailed(ctx, c, reasonNoRefreshToken, errors.New("no refresh token"))
	}

	if !e.cfg.CoalesceRefresh {
		pair, err := e.exchange(ctx, c, refreshToken)
		if err != nil {
			return "", err
		}
		return pair.access, nil
	}

	key := coalesceKey(e.cfg.RefreshEndpoint, refreshToken)
	pair, shared, err := e.refreshes.do(key, func() (tokenPair, error) {
		if pair, ok := e.rotated(ctx, refreshToken); ok {
			c.span.AddEvent("token.refresh.skipped")
			return pair, nil
		}
		return e.exchange(ctx, c, refreshToken)
	})
	c.span.SetAttributes(attribute.Bool("authclient.refresh.shared", shared))
	if err != nil {
		return "", err
	}
	return pair.access, nil
}

// rotated returns the stored tokens when another refresh has already replaced
// refreshToken, so a caller that missed the shared flight does not present a
// consumed token. Read errors count as not rotated.
func (e *Executor) rotated(ctx context.Context, refreshToken string) (tokenPair, bool) {
	current, err := e.store.RefreshToken(ctx)
	if err != nil || current == "" || current == refreshToken {
		return tokenPair{}, false
	}
	access, err := e.store.AccessToken(ctx)
	if err != nil || access == "" {
		return tokenPair{}, false
	}
	return tokenPair{access: access, refresh: current}, true
}

// exchange performs one call to the refresh endpoint and stores the result.
func (e *Executor) exchange(ctx context.Context, c *call, refreshToken string) (tokenPair, error) {
	spec := e.cfg.RefreshEndpoint.Tokenless().WithParam(e.cfg.RefreshParam, refreshToken)

	if err := spec.validate(); err != nil {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonBuild, err)
	}
	req, err := buildRequest(e.cfg.BaseURL, spec, "")
	if err != nil {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonBuild, err)
	}

	e.cfg.Metrics.recordRefreshAttempt(ctx, c.attrs)

	raw, err := e.send(ctx, c, req, TagRefreshRequest, TagRefreshResponse)
	if err != nil {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonTransport, err)
	}
	if !isSuccessStatus(raw.StatusCode) {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonStatus,
			fmt.Errorf("refresh endpoint returned %d %s", raw.StatusCode, raw.StatusText))
	}

	var body map[string]any
	if err := json.Unmarshal(raw.Body, &body); err != nil {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonDecode, err)
	}

	pair := tokenPair{
		access:  lookupString(body, e.cfg.AccessTokenField),
		refresh: lookupString(body, e.cfg.RefreshTokenField),
	}
	if pair.access == "" || pair.refresh == "" {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonIncomplete,
			fmt.Errorf("response lacks %q or %q", e.cfg.AccessTokenField, e.cfg.RefreshTokenField))
	}

	if err := e.store.SetTokens(ctx, pair.access, pair.refresh); err != nil {
		return tokenPair{}, e.refreshFailed(ctx, c, reasonStore, err)
	}

	return pair, nil
}

// refreshFailed records and logs a failed refresh cycle.
func (e *Executor) refreshFailed(ctx context.Context, c *call, reason string, cause error) error {
	err := fmt.Errorf("%w: %s: %w", ErrRefreshFailed, reason, cause)

	c.span.RecordError(err)
	e.cfg.Metrics.recordRefreshFailure(ctx, reason, c.attrs)
	e.logger.Log(TagRefreshFailed, map[string]any{
		"correlation_id": c.id,
		"reason":         reason,
		"error":          cause.Error(),
	})
	return err
}

// lookupString resolves a dotted path such as "data.accessToken" in a
// decoded JSON object. Missing keys and non-string values yield "".
func lookupString(obj map[string]any, path string) string {
	var cur any = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}
	s, _ := cur.(string)
	return s
}

// withoutQuery strips the query string from a URL.
func withoutQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
