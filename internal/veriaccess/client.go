package veriaccess

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/session"
)

// DashboardFetcher is the read-only subset the poller needs. *Client
// implements it; tests substitute fakes.
type DashboardFetcher interface {
	CurrentOccupancy(ctx context.Context) (*BuildingOccupancy, error)
	Visitors(ctx context.Context) ([]Visitor, error)
	RecentAccessLogs(ctx context.Context, limit int) ([]AccessLog, error)
	Notifications(ctx context.Context) ([]Notification, error)
}

var _ DashboardFetcher = (*Client)(nil)

// Client exposes the backend's resources as typed calls over an api.Client.
type Client struct {
	api     *api.Client
	session *session.Store
	log     logrus.FieldLogger
}

// New wraps an api client. The session store is taken from it.
func New(apiClient *api.Client, log logrus.FieldLogger) (*Client, error) {
	if apiClient == nil {
		return nil, fmt.Errorf("api client is nil")
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Client{
		api:     apiClient,
		session: apiClient.Session(),
		log:     log.WithField("component", "veriaccess"),
	}, nil
}

// Session returns the token store shared with the api client.
func (c *Client) Session() *session.Store { return c.session }

// Fields is a partial update body. Only the keys present are changed.
type Fields map[string]any

func resourcePath(collection string, id int64) string {
	return fmt.Sprintf("%s%d/", collection, id)
}

func actionPath(collection string, id int64, action string) string {
	return fmt.Sprintf("%s%d/%s/", collection, id, action)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.api.Get(ctx, path, query, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.api.Post(ctx, path, body, dest)
}

func (c *Client) patch(ctx context.Context, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.api.Patch(ctx, path, body, dest)
}

func (c *Client) delete(ctx context.Context, path string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.api.Delete(ctx, path)
}

// list fetches a collection that may come back bare or paginated.
func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var out List[T]
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
