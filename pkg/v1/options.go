package v1

import (
	"time"

	"github.com/4thel00z/lloyd/internal"
	"github.com/sirupsen/logrus"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	cfg     *internal.Config
	service internal.ClusteringService
	logger  logrus.FieldLogger
}

// WithConfig starts from a loaded configuration instead of the defaults.
func WithConfig(cfg *internal.Config) Option {
	return func(c *clientConfig) {
		copied := *cfg
		c.cfg = &copied
	}
}

// WithServiceURL sets the base URL of the clustering service.
func WithServiceURL(url string) Option {
	return func(c *clientConfig) {
		c.cfg.Service.URL = url
	}
}

// WithService replaces the HTTP service, mostly useful for tests.
func WithService(svc internal.ClusteringService) Option {
	return func(c *clientConfig) {
		c.service = svc
	}
}

// WithClusters sets the initial cluster count.
func WithClusters(k int) Option {
	return func(c *clientConfig) {
		c.cfg.Clusters = k
	}
}

// WithViewport sets the drawing surface size in pixels.
func WithViewport(width, height int) Option {
	return func(c *clientConfig) {
		c.cfg.Viewport = internal.ViewportConfig{Width: width, Height: height}
	}
}

// WithStepDelay sets the pause between steps of a run.
func WithStepDelay(d time.Duration) Option {
	return func(c *clientConfig) {
		c.cfg.Run.Delay = d
	}
}

// WithMaxIterations bounds a run. Zero means unbounded.
func WithMaxIterations(n int) Option {
	return func(c *clientConfig) {
		c.cfg.Run.MaxIterations = n
	}
}

// WithTolerance switches convergence to approximate equality.
func WithTolerance(tol float64) Option {
	return func(c *clientConfig) {
		c.cfg.Run.Tolerance = tol
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
