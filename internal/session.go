package internal

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session wires a loop, a controller, a canvas and a dispatcher together and
// keeps the loop running until Close.
type Session struct {
	ID         string
	Loop       *Loop
	Controller *Controller
	Canvas     *Canvas
	Dispatcher *Dispatcher

	cancel context.CancelFunc
}

func NewSession(cfg *Config, svc ClusteringService, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.NewString()
	logger = logger.WithField("session", id)

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()
	canvas := NewCanvas(cfg.ViewportSize())
	ctrl := NewController(ctx, loop, svc, ControllerOptions{
		Clusters: cfg.Clusters,
		Viewport: cfg.ViewportSize(),
		Run:      cfg.RunOptions(),
		Logger:   logger,
		Painter:  canvas,
	})

	go func() { _ = loop.Run(ctx) }()

	return &Session{
		ID:         id,
		Loop:       loop,
		Controller: ctrl,
		Canvas:     canvas,
		Dispatcher: NewDispatcher(loop, ctrl),
		cancel:     cancel,
	}
}

// Snapshot reads the controller state from the loop.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Loop.Call(ctx, func() { snap = s.Controller.Snapshot() })
	return snap, err
}

// Subscribe registers fn on the loop and returns a func that removes it.
func (s *Session) Subscribe(ctx context.Context, fn func(Event)) (func(), error) {
	var unsubscribe func()
	if err := s.Loop.Call(ctx, func() { unsubscribe = s.Controller.Subscribe(fn) }); err != nil {
		return nil, err
	}
	return func() { s.Loop.Post(unsubscribe) }, nil
}

// Settle waits until no request is outstanding and no run is active.
func (s *Session) Settle(ctx context.Context) error {
	idle := make(chan struct{}, 1)
	notify := func() {
		if !s.Controller.Busy() {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	}

	var unsubscribe func()
	if err := s.Loop.Call(ctx, func() {
		notify()
		unsubscribe = s.Controller.Subscribe(func(Event) { notify() })
	}); err != nil {
		return err
	}
	defer s.Loop.Post(unsubscribe)

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Loop.Done():
		return ErrLoopStopped
	}
}

func (s *Session) Close() error {
	s.cancel()
	<-s.Loop.Done()
	return nil
}
