package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/config"
	"github.com/five82/veriaccess/internal/logging"
	"github.com/five82/veriaccess/internal/prefs"
	"github.com/five82/veriaccess/internal/retry"
	"github.com/five82/veriaccess/internal/session"
	"github.com/five82/veriaccess/internal/state"
	"github.com/five82/veriaccess/internal/ui"
	"github.com/five82/veriaccess/internal/veriaccess"
)

const (
	sessionCheckAttempts = 3
	sessionCheckDelay    = time.Second
)

// Options configure the VeriAccess application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/veriaccess/prefs.toml
	PollEvery  int    // seconds; zero uses the configured poll_interval
	LogLevel   string // overrides log_level when set
}

// Run boots the VeriAccess TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, closer, err := logging.New(logging.Options{Path: cfg.LogPath, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	storage, err := session.OpenFile(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	sess := session.NewStore(storage)

	registry := prometheus.NewRegistry()
	apiClient, err := api.New(api.Options{
		BaseURL:          cfg.APIURL,
		Timeout:          cfg.Timeout,
		Session:          sess,
		Logger:           logger,
		Metrics:          api.NewMetrics(registry),
		Limiter:          newLimiter(cfg.RequestsPerSecond),
		DisableFallbacks: !cfg.VisitorFallback,
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	client, err := veriaccess.New(apiClient, logger)
	if err != nil {
		return fmt.Errorf("init veriaccess client: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"api_url":       apiClient.BaseURL(),
		"session_path":  storage.Path(),
		"poll_interval": cfg.PollInterval.String(),
	}).Info("starting")

	verifySession(ctx, client, sess, logger)

	store := &state.Store{}
	poller := NewPoller(client, store, sess, logger, cfg.PollInterval)
	poller.Start(ctx)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Backend:   client,
		Store:     store,
		Session:   sess,
		Refresher: poller,
		Log:       logger,
		APIURL:    apiClient.BaseURL(),
		LogPath:   cfg.LogPath,
		PrefsPath: opts.PrefsPath,
		ThemeName: userPrefs.Theme,
		Username:  userPrefs.LastUsername,
		PollTick:  time.Second,
	})
	logMetrics(registry, logger)
	return err
}

// newLimiter allows rps requests per second with a burst of one second's
// worth. Zero disables limiting.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(math.Ceil(rps))
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// verifySession asks the backend who the stored token belongs to, retrying
// only while the server is unreachable. A rejected session has already been
// cleared by the pipeline, so the UI opens on the login form.
//
// An access token past its exp claim with no refresh token to renew it is
// dropped without a request.
func verifySession(ctx context.Context, client *veriaccess.Client, sess *session.Store, log logrus.FieldLogger) {
	if _, ok := sess.AccessToken(); !ok {
		return
	}
	if !sess.IsAuthenticated(time.Now()) {
		if _, ok := sess.RefreshToken(); !ok {
			if err := sess.Clear(); err != nil {
				log.WithError(err).Warn("clear expired session")
			}
			log.Info("stored session expired")
			return
		}
		log.Debug("stored access token expired, refreshing")
	}
	user, err := retry.DoNotify(ctx, func(ctx context.Context) (*session.User, error) {
		user, err := client.Me(ctx)
		if err != nil && api.Normalize(err).Kind != api.NetworkUnavailable {
			return nil, retry.Permanent(err)
		}
		return user, err
	}, sessionCheckAttempts, sessionCheckDelay, func(err error, attempt int, wait time.Duration) {
		log.WithError(err).WithField("attempt", attempt).Debug("session check retry")
	})
	switch {
	case err == nil:
		log.WithField("username", user.Username).Info("resumed session")
	case errors.Is(err, api.ErrSessionExpired):
		log.Info("stored session expired")
	default:
		log.WithError(err).Warn("could not verify stored session")
	}
}

// logMetrics writes the request counters gathered during the run.
func logMetrics(reg prometheus.Gatherer, log logrus.FieldLogger) {
	families, err := reg.Gather()
	if err != nil {
		log.WithError(err).Warn("gather metrics")
		return
	}
	fields := logrus.Fields{}
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
		if total > 0 {
			fields[mf.GetName()] = total
		}
	}
	log.WithFields(fields).Info("shutting down")
}
