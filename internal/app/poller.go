package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/session"
	"github.com/five82/veriaccess/internal/state"
	"github.com/five82/veriaccess/internal/veriaccess"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
	recentLogLimit      = 10
)

// Poller refreshes the dashboard store in the background while a user is
// signed in.
type Poller struct {
	fetcher  veriaccess.DashboardFetcher
	store    *state.Store
	session  *session.Store
	log      logrus.FieldLogger
	interval time.Duration
	kick     chan struct{}
}

// NewPoller builds a poller. A nil session store polls unconditionally.
func NewPoller(fetcher veriaccess.DashboardFetcher, store *state.Store, sess *session.Store, log logrus.FieldLogger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		session:  sess,
		log:      log.WithField("component", "poller"),
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine and returns immediately. Failed polls
// back off exponentially up to maxBackoff.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			case <-p.kick:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}

			_ = p.Refresh(ctx)
			failures := p.store.Snapshot().ConsecutiveFailures
			timer.Reset(calculateBackoff(failures, p.interval))
		}
	}()
}

// Kick asks for an immediate refresh, e.g. right after login.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Refresh fetches all dashboard panels concurrently and records the outcome.
// Nothing is fetched while signed out.
func (p *Poller) Refresh(ctx context.Context) error {
	if p.session != nil {
		if _, ok := p.session.AccessToken(); !ok {
			return nil
		}
	}

	dash, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		p.store.Update(nil, err)
		entry := p.log.WithError(err)
		if errors.Is(err, api.ErrSessionExpired) {
			entry.Warn("session expired during poll")
		} else {
			entry.WithField("kind", api.Normalize(err).Kind.String()).Warn("dashboard poll failed")
		}
		return err
	}
	p.store.Update(dash, nil)
	return nil
}

func (p *Poller) fetch(ctx context.Context) (*state.Dashboard, error) {
	var dash state.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		occ, err := p.fetcher.CurrentOccupancy(gctx)
		if err != nil {
			return fmt.Errorf("fetch occupancy: %w", err)
		}
		dash.Occupancy = occ
		return nil
	})
	g.Go(func() error {
		visitors, err := p.fetcher.Visitors(gctx)
		if err != nil {
			return fmt.Errorf("fetch visitors: %w", err)
		}
		dash.Visitors = visitors
		return nil
	})
	g.Go(func() error {
		logs, err := p.fetcher.RecentAccessLogs(gctx, recentLogLimit)
		if err != nil {
			return fmt.Errorf("fetch access logs: %w", err)
		}
		dash.RecentLogs = logs
		return nil
	})
	g.Go(func() error {
		notes, err := p.fetcher.Notifications(gctx)
		if err != nil {
			return fmt.Errorf("fetch notifications: %w", err)
		}
		dash.Notifications = notes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
