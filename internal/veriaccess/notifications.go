package veriaccess

import (
	"context"
	"errors"
)

const (
	messagesPath    = "/notifications/messages/"
	preferencesPath = "/notifications/preferences/"
)

// ErrNoPreferences is returned when the backend holds no preference record
// for the user.
var ErrNoPreferences = errors.New("no notification preferences found")

// Notifications lists the user's notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	return list[Notification](ctx, c, messagesPath, nil)
}

// MarkRead flags a notification as read.
func (c *Client) MarkRead(ctx context.Context, id int64) (*Notification, error) {
	var out Notification
	if err := c.patch(ctx, resourcePath(messagesPath, id), Fields{"read": true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preferences returns the user's delivery preferences.
func (c *Client) Preferences(ctx context.Context) (*NotificationPreferences, error) {
	prefs, err := list[NotificationPreferences](ctx, c, preferencesPath, nil)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return nil, ErrNoPreferences
	}
	return &prefs[0], nil
}

// UpdatePreferences patches the user's preference record.
func (c *Client) UpdatePreferences(ctx context.Context, fields Fields) (*NotificationPreferences, error) {
	current, err := c.Preferences(ctx)
	if err != nil {
		return nil, err
	}
	var out NotificationPreferences
	if err := c.patch(ctx, resourcePath(preferencesPath, current.ID), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unread filters notifications not yet read.
func Unread(items []Notification) []Notification {
	out := make([]Notification, 0, len(items))
	for _, n := range items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}
