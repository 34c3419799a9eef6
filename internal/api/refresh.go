package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/five82/veriaccess/internal/session"
)

// refresh is the 401 hook. It exchanges the refresh token once per request
// descriptor and replays the request with the new access token.
func (c *Client) refresh(ctx context.Context, call *Call, resp *Response, err error) (*Response, error) {
	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	req := call.Request
	if req.Retried || isLoginPath(req.Path) || !c.session.Available() {
		return resp, err
	}
	req.Retried = true

	token, rerr := c.refresher.token(ctx, authorizationToken(call.HTTPRequest))
	call.Settle()
	if rerr != nil {
		return nil, rerr
	}

	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(ctx, req)
}

// refresher performs the token exchange outside the hook pipeline so the
// refresh call can never trigger another refresh.
type refresher struct {
	http      *http.Client
	url       string
	userAgent string
	session   *session.Store
	log       logrus.FieldLogger
	metrics   *Metrics
	group     singleflight.Group
}

// token returns an access token to replay with. stale is the token the
// failing request carried; when the store already holds a different one a
// concurrent refresh has rotated it and no exchange is needed.
func (r *refresher) token(ctx context.Context, stale string) (string, error) {
	refreshToken, ok := r.session.RefreshToken()
	if !ok {
		r.clear(ErrNoRefreshToken)
		r.metrics.refreshed(false)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, ErrNoRefreshToken)
	}
	if current, ok := r.session.AccessToken(); ok && stale != "" && current != stale {
		return current, nil
	}

	// The exchange outlives any single caller so other waiters still get
	// the new token; each caller stops waiting when its own ctx ends.
	ch := r.group.DoChan(refreshToken, func() (any, error) {
		return r.exchange(context.WithoutCancel(ctx), refreshToken)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			r.log.Debug("joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (r *refresher) exchange(ctx context.Context, refreshToken string) (string, error) {
	access, err := r.post(ctx, refreshToken)
	if err == nil {
		err = r.session.SetTokens(access, "")
	}
	if err != nil {
		r.metrics.refreshed(false)
		r.clear(err)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	r.metrics.refreshed(true)
	r.log.Info("access token refreshed")
	return access, nil
}

func (r *refresher) post(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return "", &NetworkError{Method: http.MethodPost, Path: RefreshPath, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", &ResponseError{
			Method:     http.MethodPost,
			Path:       RefreshPath,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
			Message:    ExtractMessage(body),
		}
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if out.Access == "" {
		return "", errors.New("refresh response missing access token")
	}
	return out.Access, nil
}

func (r *refresher) clear(cause error) {
	r.log.WithError(cause).Warn("token refresh failed, clearing session")
	if err := r.session.Clear(); err != nil {
		r.log.WithError(err).Error("clear session after failed refresh")
	}
}
