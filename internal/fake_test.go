package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fakeService is an in-memory ClusteringService with scripted answers.
type fakeService struct {
	mu sync.Mutex

	points    []Point
	centroids []Point
	stepFn    func(call int, centroids []Point, k int) (*StepResult, error)
	genErr    error
	initErr   error
	gate      chan struct{}
	initGate  chan struct{}

	genCalls   int
	initCalls  int
	stepCalls  int
	lastMethod string
	lastK      int
	lastSent   []Point
}

var _ ClusteringService = (*fakeService)(nil)

func (f *fakeService) Generate(ctx context.Context) ([]Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return clonePoints(f.points), nil
}

func (f *fakeService) Initialize(ctx context.Context, method string, k int) ([]Point, error) {
	f.mu.Lock()
	f.initCalls++
	f.lastMethod = method
	f.lastK = k
	gate := f.initGate
	centroids, err := clonePoints(f.centroids), f.initErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return centroids, nil
}

// gateSteps makes every following Step block until a value is sent on the
// returned channel.
func (f *fakeService) gateSteps() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeService) gateInitialize() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initGate = make(chan struct{})
	return f.initGate
}

func (f *fakeService) setCentroids(centroids []Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.centroids = centroids
}

func (f *fakeService) Step(ctx context.Context, centroids []Point, k int) (*StepResult, error) {
	f.mu.Lock()
	f.stepCalls++
	call := f.stepCalls
	f.lastSent = clonePoints(centroids)
	f.lastK = k
	gate := f.gate
	fn := f.stepFn
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return fn(call, centroids, k)
}

func (f *fakeService) calls() (gen, init, step int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genCalls, f.initCalls, f.stepCalls
}

func (f *fakeService) stepCount() int {
	_, _, step := f.calls()
	return step
}

// scriptedSteps answers the n-th call with results[n-1]; the last result
// repeats once the script runs out.
func scriptedSteps(results ...*StepResult) func(int, []Point, int) (*StepResult, error) {
	return func(call int, _ []Point, _ int) (*StepResult, error) {
		i := call - 1
		if i >= len(results) {
			i = len(results) - 1
		}
		r := results[i]
		return &StepResult{Centroids: clonePoints(r.Centroids), Clusters: r.Clusters.Clone()}, nil
	}
}

// perturbingSteps nudges every centroid on every call so a run never
// converges.
func perturbingSteps() func(int, []Point, int) (*StepResult, error) {
	return func(call int, centroids []Point, _ int) (*StepResult, error) {
		out := make([]Point, len(centroids))
		for i, c := range centroids {
			out[i] = Point{c[0] + 0.001, c[1] - 0.001}
		}
		return &StepResult{Centroids: out, Clusters: ClusterMap{0: {0}}}, nil
	}
}

func samplePoints() []Point {
	return []Point{{-1, -1}, {1, 1}, {-1.2, -0.8}, {1.1, 0.9}, {0, 2}}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) find(match func(Event) bool) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if match(ev) {
			return ev, true
		}
	}
	return Event{}, false
}

func (r *eventRecorder) count(match func(Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if match(ev) {
			n++
		}
	}
	return n
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	loop   *Loop
	ctrl   *Controller
	canvas *Canvas
	svc    *fakeService
	events *eventRecorder
	logs   *logtest.Hook
}

func newHarness(t *testing.T, svc *fakeService, opts ControllerOptions) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	loop := NewLoop()
	go func() { _ = loop.Run(ctx) }()

	if opts.Viewport == (Viewport{}) {
		opts.Viewport = Viewport{Width: 600, Height: 600}
	}
	canvas := NewCanvas(opts.Viewport)
	opts.Logger = logger
	opts.Painter = canvas

	h := &harness{
		t:      t,
		ctx:    ctx,
		loop:   loop,
		ctrl:   NewController(ctx, loop, svc, opts),
		canvas: canvas,
		svc:    svc,
		events: &eventRecorder{},
		logs:   hook,
	}
	h.on(func() { h.ctrl.Subscribe(h.events.record) })
	return h
}

// on runs fn on the loop.
func (h *harness) on(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.loop.Call(h.ctx, fn))
}

func (h *harness) snapshot() Snapshot {
	h.t.Helper()
	var snap Snapshot
	h.on(func() { snap = h.ctrl.Snapshot() })
	return snap
}

func (h *harness) waitEvent(match func(Event) bool) Event {
	h.t.Helper()
	var found Event
	require.Eventually(h.t, func() bool {
		ev, ok := h.events.find(match)
		found = ev
		return ok
	}, 2*time.Second, 2*time.Millisecond)
	return found
}

func (h *harness) waitRequest(op OpKind, seq uint64) Event {
	h.t.Helper()
	return h.waitEvent(func(ev Event) bool {
		return ev.Op == op && ev.Seq == seq && ev.Kind != EventRunFinished
	})
}

func (h *harness) waitRun(id uint64) Event {
	h.t.Helper()
	return h.waitEvent(func(ev Event) bool {
		return ev.Kind == EventRunFinished && ev.RunID == id
	})
}

func (h *harness) generate() {
	h.t.Helper()
	var seq uint64
	h.on(func() { seq = h.ctrl.Generate() })
	ev := h.waitRequest(OpGenerate, seq)
	require.Equal(h.t, EventApplied, ev.Kind)
}

func (h *harness) initialize(method string) {
	h.t.Helper()
	var seq uint64
	var err error
	h.on(func() { seq, err = h.ctrl.Initialize(method) })
	require.NoError(h.t, err)
	if method == MethodManual {
		return
	}
	ev := h.waitRequest(OpInitialize, seq)
	require.Equal(h.t, EventApplied, ev.Kind)
}

func (h *harness) step() Event {
	h.t.Helper()
	var seq uint64
	var err error
	h.on(func() { seq, err = h.ctrl.Step() })
	require.NoError(h.t, err)
	return h.waitRequest(OpStep, seq)
}
