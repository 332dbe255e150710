package v1

import (
	"context"
	"fmt"
	"io"

	"github.com/4thel00z/lloyd/internal"
)

// Client drives one clustering session. Every call waits for the operation
// it started to be applied, rejected or superseded.
type Client struct {
	session *internal.Session
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		cfg: internal.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.cfg.Validate(); err != nil {
		return nil, err
	}

	svc := cfg.service
	if svc == nil {
		svc = internal.NewHTTPService(cfg.cfg.Service.URL, cfg.cfg.Service.Timeout)
	}

	return &Client{
		session: internal.NewSession(cfg.cfg, svc, cfg.logger),
	}, nil
}

// await starts an operation on the loop and waits for the first event that
// match accepts. Subscribing in the same callback means no event is missed.
func (c *Client) await(ctx context.Context, start func() (func(internal.Event) bool, error)) (internal.Event, error) {
	events := make(chan internal.Event, 1)

	var unsubscribe func()
	var startErr error
	err := c.session.Loop.Call(ctx, func() {
		match, err := start()
		if err != nil {
			startErr = err
			return
		}
		unsubscribe = c.session.Controller.Subscribe(func(ev internal.Event) {
			if match(ev) {
				select {
				case events <- ev:
				default:
				}
			}
		})
	})
	if err != nil {
		return internal.Event{}, err
	}
	if startErr != nil {
		return internal.Event{}, startErr
	}
	defer c.session.Loop.Post(unsubscribe)

	select {
	case ev := <-events:
		return ev, nil
	case <-ctx.Done():
		return internal.Event{}, ctx.Err()
	case <-c.session.Loop.Done():
		return internal.Event{}, internal.ErrLoopStopped
	}
}

func requestDone(op internal.OpKind, seq uint64) func(internal.Event) bool {
	return func(ev internal.Event) bool {
		if ev.Op != op || ev.Seq != seq {
			return false
		}
		switch ev.Kind {
		case internal.EventApplied, internal.EventFailed, internal.EventDiscarded:
			return true
		}
		return false
	}
}

func (c *Client) awaitRequest(ctx context.Context, op internal.OpKind, issue func() (uint64, error)) error {
	ev, err := c.await(ctx, func() (func(internal.Event) bool, error) {
		seq, err := issue()
		if err != nil {
			return nil, err
		}
		return requestDone(op, seq), nil
	})
	if err != nil {
		return err
	}
	if ev.Err != nil {
		return fmt.Errorf("%s: %w", op, ev.Err)
	}
	return nil
}

// Generate replaces the dataset with a freshly generated one.
func (c *Client) Generate(ctx context.Context) error {
	return c.awaitRequest(ctx, internal.OpGenerate, func() (uint64, error) {
		return c.session.Controller.Generate(), nil
	})
}

// Initialize places the initial centroids with the given method. For the
// manual method it only arms pointer capture.
func (c *Client) Initialize(ctx context.Context, method string) error {
	if method == internal.MethodManual {
		var err error
		if callErr := c.session.Loop.Call(ctx, func() {
			_, err = c.session.Controller.Initialize(method)
		}); callErr != nil {
			return callErr
		}
		return err
	}
	return c.awaitRequest(ctx, internal.OpInitialize, func() (uint64, error) {
		return c.session.Controller.Initialize(method)
	})
}

// Capture feeds a pointer event at pixel (px, py). It reports whether a
// centroid was added.
func (c *Client) Capture(ctx context.Context, px, py float64) (bool, error) {
	var added bool
	err := c.session.Loop.Call(ctx, func() {
		added = c.session.Controller.Capture(px, py)
	})
	return added, err
}

// Step performs a single refinement step.
func (c *Client) Step(ctx context.Context) error {
	return c.awaitRequest(ctx, internal.OpStep, c.session.Controller.Step)
}

// Run steps until convergence, the iteration bound, failure or Stop.
func (c *Client) Run(ctx context.Context) (*RunResult, error) {
	ev, err := c.await(ctx, func() (func(internal.Event) bool, error) {
		id, err := c.session.Controller.Run()
		if err != nil {
			return nil, err
		}
		return func(ev internal.Event) bool {
			return ev.Kind == internal.EventRunFinished && ev.RunID == id
		}, nil
	})
	if err != nil {
		return nil, err
	}

	res := &RunResult{Outcome: ev.Outcome, Iterations: ev.Iterations}
	if ev.Err != nil {
		res.Error = ev.Err.Error()
		return res, fmt.Errorf("run: %w", ev.Err)
	}
	return res, nil
}

// Stop cancels an active run. It reports whether one was active.
func (c *Client) Stop(ctx context.Context) (bool, error) {
	var stopped bool
	err := c.session.Loop.Call(ctx, func() {
		stopped = c.session.Controller.Stop()
	})
	return stopped, err
}

// Reset clears centroids and cluster assignments.
func (c *Client) Reset(ctx context.Context) error {
	return c.session.Loop.Call(ctx, c.session.Controller.Reset)
}

// SetClusters changes K, clearing centroids and cluster assignments.
func (c *Client) SetClusters(ctx context.Context, k int) error {
	var err error
	if callErr := c.session.Loop.Call(ctx, func() {
		err = c.session.Controller.SetK(k)
	}); callErr != nil {
		return callErr
	}
	return err
}

// Do dispatches a named action without waiting for remote results.
func (c *Client) Do(ctx context.Context, action string, args ...string) error {
	return c.session.Dispatcher.Dispatch(ctx, action, args...)
}

// State returns the current controller state.
func (c *Client) State(ctx context.Context) (State, error) {
	snap, err := c.session.Snapshot(ctx)
	if err != nil {
		return State{}, err
	}
	return stateFrom(snap), nil
}

// Scene returns what is currently painted.
func (c *Client) Scene() Scene {
	return c.session.Canvas.Scene()
}

// WriteChart writes the painted scene as an HTML chart.
func (c *Client) WriteChart(w io.Writer, title string) error {
	return internal.WriteChart(w, c.session.Canvas.Scene(), title)
}

// Close stops the session. Outstanding responses are dropped.
func (c *Client) Close() error {
	return c.session.Close()
}
