package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// FallbackRule substitutes Body for the response of a read-only request when
// the server is unreachable or answers with a 5xx status.
type FallbackRule struct {
	Method string
	Path   string
	Body   []byte
}

// DefaultFallbacks returns the built-in rules: the visitor listing degrades
// to an empty list.
func DefaultFallbacks() []FallbackRule {
	return []FallbackRule{
		{Method: http.MethodGet, Path: "/access/visitors/", Body: []byte("[]")},
	}
}

func (r FallbackRule) matches(req *Request) bool {
	method := strings.ToUpper(req.Method)
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	if !strings.EqualFold(r.Method, method) {
		return false
	}
	path := req.Path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path == r.Path
}

// covers reports whether err is a failure the rule may mask.
func covers(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode >= http.StatusInternalServerError
}

func (c *Client) fallback(_ context.Context, call *Call, resp *Response, err error) (*Response, error) {
	if err == nil || !covers(err) {
		return resp, err
	}
	for _, rule := range c.fallbacks {
		if !rule.matches(call.Request) {
			continue
		}
		c.log.WithFields(logrus.Fields{
			"method": call.Request.Method,
			"path":   call.Request.Path,
		}).WithError(err).Warn("serving fallback response")
		c.metrics.fellBack(rule.Path)

		body := make([]byte, len(rule.Body))
		copy(body, rule.Body)
		return &Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       body,
			Request:    call.Request,
			Fallback:   true,
		}, nil
	}
	return resp, err
}
