package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RequestHook mutates an outgoing request before it is sent. An error aborts
// the call.
type RequestHook func(ctx context.Context, req *http.Request) error

// ResponseHook sees the result of a round trip and returns the result to pass
// on. Calling call.Settle makes the returned result final.
type ResponseHook func(ctx context.Context, call *Call, resp *Response, err error) (*Response, error)

// Call is the per-pass state shared by response hooks.
type Call struct {
	Request     *Request
	HTTPRequest *http.Request
	Started     time.Time

	settled bool
}

// Settle stops the remaining response hooks.
func (c *Call) Settle() { c.settled = true }

// Settled reports whether a hook has settled the call.
func (c *Call) Settled() bool { return c.settled }

const requestIDHeader = "X-Request-ID"

func requestID(_ context.Context, req *http.Request) error {
	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.NewString())
	}
	return nil
}

// bearer attaches the stored access token, overwriting any Authorization
// header already present.
func (c *Client) bearer(_ context.Context, req *http.Request) error {
	if token, ok := c.session.AccessToken(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func rateLimit(l *rate.Limiter) RequestHook {
	return func(ctx context.Context, _ *http.Request) error {
		return l.Wait(ctx)
	}
}

func (c *Client) observe(_ context.Context, call *Call, resp *Response, err error) (*Response, error) {
	elapsed := time.Since(call.Started)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.observe(call.Request.Method, status, elapsed)

	entry := c.log.WithFields(logrus.Fields{
		"method":     call.Request.Method,
		"path":       call.Request.Path,
		"status":     status,
		"duration":   elapsed.String(),
		"request_id": call.HTTPRequest.Header.Get(requestIDHeader),
		"retried":    call.Request.Retried,
	})
	if status == 0 && err != nil {
		entry.WithError(err).Debug("request failed")
	} else {
		entry.Debug("request completed")
	}
	return resp, err
}

func (c *Client) normalize(_ context.Context, call *Call, resp *Response, err error) (*Response, error) {
	if err == nil {
		return resp, nil
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		if respErr.Message == "" {
			respErr.Message = ExtractMessage(respErr.Body)
		}
		if respErr.Message == "" {
			respErr.Message = http.StatusText(respErr.StatusCode)
		}
		entry := c.log.WithFields(logrus.Fields{
			"method": call.Request.Method,
			"path":   call.Request.Path,
			"status": respErr.StatusCode,
			"kind":   respErr.Kind().String(),
		})
		switch respErr.Kind() {
		case ServerError:
			entry.Error(respErr.Message)
		default:
			entry.Warn(respErr.Message)
		}
		return resp, err
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		c.log.WithFields(logrus.Fields{
			"method": call.Request.Method,
			"path":   call.Request.Path,
			"kind":   NetworkUnavailable.String(),
		}).WithError(netErr.Err).Error("no response from server")
	}
	return resp, err
}

func authorizationToken(req *http.Request) string {
	if req == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "))
}

func isLoginPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(LoginPath, "/")
}
