package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultClusters      = 3
	DefaultStepDelay     = 500 * time.Millisecond
	DefaultMaxIterations = 100
)

type OpKind string

const (
	OpGenerate   OpKind = "generate"
	OpInitialize OpKind = "initialize"
	OpStep       OpKind = "step"
	OpRun        OpKind = "run"
	OpCapture    OpKind = "capture"
	OpSetK       OpKind = "set-k"
	OpReset      OpKind = "reset"
)

type RunOutcome string

const (
	OutcomeConverged RunOutcome = "converged"
	OutcomeExhausted RunOutcome = "exhausted"
	OutcomeCancelled RunOutcome = "cancelled"
	OutcomeFailed    RunOutcome = "failed"
)

type EventKind string

const (
	EventApplied     EventKind = "applied"
	EventFailed      EventKind = "failed"
	EventDiscarded   EventKind = "discarded"
	EventRunFinished EventKind = "run-finished"
	EventArmed       EventKind = "armed"
)

// Event reports a state transition. Seq is set for remote operations, RunID
// for everything that belongs to a run.
type Event struct {
	Kind       EventKind
	Op         OpKind
	Seq        uint64
	RunID      uint64
	Outcome    RunOutcome
	Iterations int
	Err        error
}

type RunOptions struct {
	Delay         time.Duration
	MaxIterations int     // 0 means unbounded
	Tolerance     float64 // 0 means exact equality
}

func DefaultRunOptions() RunOptions {
	return RunOptions{Delay: DefaultStepDelay, MaxIterations: DefaultMaxIterations}
}

type ControllerOptions struct {
	Clusters int
	Viewport Viewport
	Run      RunOptions
	Logger   logrus.FieldLogger
	Painter  Painter
}

type RunSummary struct {
	ID         uint64
	Outcome    RunOutcome
	Iterations int
	Err        error
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	K         int
	Mode      InitMode
	Armed     bool
	Phase     Phase
	Points    []Point
	Centroids []Point
	Clusters  ClusterMap
	Index     AssignmentIndex
	Run       *RunSummary
	LastError error
}

type activeRun struct {
	id         uint64
	iterations int
	timer      *time.Timer
}

type listener struct {
	id int
	fn func(Event)
}

// Controller owns the dataset, centroids, cluster map and K. Every method
// must be called on the loop; results of remote calls are posted back to it.
type Controller struct {
	ctx     context.Context
	loop    *Loop
	svc     ClusteringService
	log     logrus.FieldLogger
	painter Painter
	vp      Viewport
	runOpts RunOptions

	dataset   *DatasetStore
	centroids []Point
	clusters  ClusterMap
	k         int
	mode      InitMode
	armed     bool
	lastErr   error

	seq         map[OpKind]uint64
	inflight    int
	steppingSeq uint64
	runSeq      uint64
	run         *activeRun
	lastRun     *RunSummary

	listeners  []listener
	listenerID int
}

func NewController(ctx context.Context, loop *Loop, svc ClusteringService, opts ControllerOptions) *Controller {
	if opts.Clusters < 1 {
		opts.Clusters = DefaultClusters
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = Viewport{Width: DefaultWidth, Height: DefaultHeight}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Controller{
		ctx:     ctx,
		loop:    loop,
		svc:     svc,
		log:     opts.Logger,
		painter: opts.Painter,
		vp:      opts.Viewport,
		runOpts: opts.Run,
		dataset: NewDatasetStore(),
		k:       opts.Clusters,
		seq:     make(map[OpKind]uint64),
	}
}

// Subscribe registers fn for every event. The returned func removes it.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.listenerID++
	id := c.listenerID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) emit(ev Event) {
	for _, l := range append([]listener(nil), c.listeners...) {
		l.fn(ev)
	}
}

// Busy reports whether a request is outstanding or a run is active.
func (c *Controller) Busy() bool {
	return c.inflight > 0 || c.run != nil
}

func (c *Controller) Phase() Phase {
	switch {
	case c.run != nil:
		return PhaseRunning
	case c.steppingSeq != 0 && c.steppingSeq == c.seq[OpStep]:
		return PhaseStepping
	case len(c.centroids) > 0:
		return PhaseInitialized
	default:
		return PhaseIdle
	}
}

func (c *Controller) Snapshot() Snapshot {
	var run *RunSummary
	if c.lastRun != nil {
		r := *c.lastRun
		run = &r
	}
	return Snapshot{
		K:         c.k,
		Mode:      c.mode,
		Armed:     c.armed,
		Phase:     c.Phase(),
		Points:    c.dataset.Points(),
		Centroids: clonePoints(c.centroids),
		Clusters:  c.clusters.Clone(),
		Index:     BuildAssignmentIndex(c.clusters),
		Run:       run,
		LastError: c.lastErr,
	}
}

// issue runs call off the loop and hands the result to apply on the loop,
// unless another request of the same kind was issued (or the kind was
// invalidated) in the meantime.
func issue[T any](c *Controller, op OpKind, call func(context.Context) (T, error), apply func(seq uint64, v T, err error)) uint64 {
	c.seq[op]++
	seq := c.seq[op]
	c.inflight++

	log := c.log.WithFields(logrus.Fields{"op": op, "seq": seq})
	log.Debug("request issued")

	go func() {
		v, err := call(c.ctx)
		c.loop.Post(func() {
			c.inflight--
			if seq != c.seq[op] {
				log.Info("discarding stale response")
				c.emit(Event{Kind: EventDiscarded, Op: op, Seq: seq, Err: ErrStaleResponse})
				return
			}
			apply(seq, v, err)
		})
	}()

	return seq
}

func (c *Controller) invalidate(ops ...OpKind) {
	for _, op := range ops {
		c.seq[op]++
	}
}

func (c *Controller) fail(op OpKind, seq uint64, err error) {
	c.lastErr = err
	c.log.WithFields(logrus.Fields{"op": op, "seq": seq}).WithError(err).Error("request failed")
	c.emit(Event{Kind: EventFailed, Op: op, Seq: seq, Err: err})
}

func (c *Controller) paint(layers Layer) {
	if c.painter == nil {
		return
	}
	scene := Render(c.dataset.Points(), c.centroids, BuildAssignmentIndex(c.clusters), c.k, c.vp)
	c.painter.Paint(scene, layers)
}

func (c *Controller) clamp(op OpKind, centroids []Point) []Point {
	if len(centroids) <= c.k {
		return clonePoints(centroids)
	}
	c.log.WithFields(logrus.Fields{"op": op, "got": len(centroids), "k": c.k}).
		Warn("service returned more centroids than clusters, truncating")
	return clonePoints(centroids[:c.k])
}

// clearCentroids drops centroids and clusters and makes every in-flight
// initialize or step response stale.
func (c *Controller) clearCentroids() {
	c.cancelRun()
	c.invalidate(OpStep, OpInitialize)
	c.centroids = nil
	c.clusters = nil
}

// Generate asks the service for a new dataset. It returns the request sequence.
func (c *Controller) Generate() uint64 {
	return issue(c, OpGenerate, c.svc.Generate, func(seq uint64, points []Point, err error) {
		if err != nil {
			c.fail(OpGenerate, seq, err)
			return
		}
		c.dataset.Load(points)
		c.clearCentroids()
		c.lastErr = nil
		c.log.WithField("points", len(points)).Info("dataset loaded")
		c.paint(LayerAll)
		c.emit(Event{Kind: EventApplied, Op: OpGenerate, Seq: seq})
	})
}

// SetK changes the cluster count and returns to the uninitialized state.
func (c *Controller) SetK(k int) error {
	if k < 1 {
		return fmt.Errorf("set k to %d: %w", k, ErrInvalidK)
	}
	c.k = k
	c.clearCentroids()
	c.log.WithField("k", k).Info("cluster count changed")
	c.paint(LayerAll)
	c.emit(Event{Kind: EventApplied, Op: OpSetK})
	return nil
}

// Initialize places the initial centroids. The manual method arms pointer
// capture and returns sequence 0; the others issue a remote request.
func (c *Controller) Initialize(method string) (uint64, error) {
	if !validMethod(method) {
		return 0, fmt.Errorf("initialize %q: %w", method, ErrUnknownMethod)
	}
	if c.k < 1 {
		return 0, fmt.Errorf("initialize: %w", ErrInvalidK)
	}

	if method == MethodManual {
		c.clearCentroids()
		c.mode = ModeManual
		c.armed = true
		c.lastErr = nil
		c.log.WithField("k", c.k).Info("manual initialization armed")
		c.paint(LayerCentroids)
		c.emit(Event{Kind: EventArmed, Op: OpInitialize})
		return 0, nil
	}

	c.cancelRun()
	c.invalidate(OpStep)
	c.mode = ModeAutomatic
	c.armed = false

	k := c.k
	call := func(ctx context.Context) ([]Point, error) {
		return c.svc.Initialize(ctx, method, k)
	}
	seq := issue(c, OpInitialize, call, func(seq uint64, centroids []Point, err error) {
		if err != nil {
			c.fail(OpInitialize, seq, err)
			return
		}
		// Steps issued while this request was in flight worked on the
		// replaced centroids.
		c.cancelRun()
		c.invalidate(OpStep)
		c.centroids = c.clamp(OpInitialize, centroids)
		c.clusters = nil
		c.lastErr = nil
		c.log.WithFields(logrus.Fields{"method": method, "centroids": len(c.centroids)}).Info("centroids initialized")
		c.paint(LayerCentroids)
		c.emit(Event{Kind: EventApplied, Op: OpInitialize, Seq: seq})
	})
	return seq, nil
}

// Capture handles a pointer event at pixel (px, py). It reports whether a
// centroid was added; captures outside manual mode or beyond K are ignored.
func (c *Controller) Capture(px, py float64) bool {
	if !c.armed || len(c.centroids) >= c.k {
		return false
	}
	p := c.vp.ToDomain(px, py)
	c.centroids = append(c.centroids, p)
	c.log.WithFields(logrus.Fields{"x": p[0], "y": p[1], "count": len(c.centroids)}).Debug("centroid captured")
	c.paint(LayerCentroids)
	c.emit(Event{Kind: EventApplied, Op: OpCapture})
	return true
}

func (c *Controller) checkStep() error {
	if c.k < 1 {
		return ErrInvalidK
	}
	if len(c.centroids) == 0 {
		return ErrNotInitialized
	}
	return nil
}

func (c *Controller) issueStep(apply func(seq uint64, res *StepResult, err error)) uint64 {
	centroids := clonePoints(c.centroids)
	k := c.k
	call := func(ctx context.Context) (*StepResult, error) {
		return c.svc.Step(ctx, centroids, k)
	}
	return issue(c, OpStep, call, apply)
}

func (c *Controller) applyStep(res *StepResult) {
	c.centroids = c.clamp(OpStep, res.Centroids)
	c.clusters = res.Clusters.Clone()
	c.lastErr = nil
	c.paint(LayerAll)
}

// Step performs one refinement step.
func (c *Controller) Step() (uint64, error) {
	if err := c.checkStep(); err != nil {
		return 0, fmt.Errorf("step: %w", err)
	}
	if c.run != nil {
		return 0, fmt.Errorf("step: %w", ErrRunInProgress)
	}

	seq := c.issueStep(func(seq uint64, res *StepResult, err error) {
		c.steppingSeq = 0
		if err != nil {
			c.fail(OpStep, seq, err)
			return
		}
		c.applyStep(res)
		c.emit(Event{Kind: EventApplied, Op: OpStep, Seq: seq})
	})
	c.steppingSeq = seq
	return seq, nil
}

// Run steps repeatedly until the centroids stop moving, the iteration bound
// is hit, the run is stopped or a step fails. It returns the run id.
func (c *Controller) Run() (uint64, error) {
	if err := c.checkStep(); err != nil {
		return 0, fmt.Errorf("run: %w", err)
	}
	if c.run != nil {
		return 0, fmt.Errorf("run: %w", ErrRunInProgress)
	}

	c.runSeq++
	r := &activeRun{id: c.runSeq}
	c.run = r
	c.log.WithFields(logrus.Fields{
		"run":            r.id,
		"max_iterations": c.runOpts.MaxIterations,
		"tolerance":      c.runOpts.Tolerance,
	}).Info("run started")

	c.runStep(r)
	return r.id, nil
}

func (c *Controller) runStep(r *activeRun) {
	c.issueStep(func(seq uint64, res *StepResult, err error) {
		if c.run != r {
			return
		}
		if err != nil {
			c.fail(OpStep, seq, err)
			c.finishRun(OutcomeFailed, err)
			return
		}

		prev := clonePoints(c.centroids)
		c.applyStep(res)
		r.iterations++
		c.emit(Event{Kind: EventApplied, Op: OpStep, Seq: seq, RunID: r.id, Iterations: r.iterations})

		if Converged(prev, c.centroids, c.runOpts.Tolerance) {
			c.finishRun(OutcomeConverged, nil)
			return
		}
		if c.runOpts.MaxIterations > 0 && r.iterations >= c.runOpts.MaxIterations {
			c.finishRun(OutcomeExhausted, nil)
			return
		}

		r.timer = c.loop.After(c.runOpts.Delay, func() {
			if c.run != r {
				return
			}
			r.timer = nil
			if err := c.checkStep(); err != nil {
				c.finishRun(OutcomeFailed, err)
				return
			}
			c.runStep(r)
		})
	})
}

func (c *Controller) finishRun(outcome RunOutcome, err error) {
	r := c.run
	if r == nil {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	c.run = nil
	c.lastRun = &RunSummary{ID: r.id, Outcome: outcome, Iterations: r.iterations, Err: err}

	entry := c.log.WithFields(logrus.Fields{"run": r.id, "outcome": outcome, "iterations": r.iterations})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Info("run finished")

	c.emit(Event{Kind: EventRunFinished, Op: OpRun, RunID: r.id, Outcome: outcome, Iterations: r.iterations, Err: err})
}

func (c *Controller) cancelRun() {
	if c.run == nil {
		return
	}
	c.invalidate(OpStep)
	c.finishRun(OutcomeCancelled, nil)
}

// Stop cancels the active run. It reports whether there was one.
func (c *Controller) Stop() bool {
	if c.run == nil {
		return false
	}
	c.cancelRun()
	return true
}

// Reset clears centroids and clusters and repaints the points uncolored.
func (c *Controller) Reset() {
	c.clearCentroids()
	c.lastErr = nil
	c.log.Info("reset")
	c.paint(LayerAll)
	c.emit(Event{Kind: EventApplied, Op: OpReset})
}

// Converged compares two centroid collections. With tol <= 0 the comparison
// is exact.
func Converged(prev, next []Point, tol float64) bool {
	if len(prev) != len(next) {
		return false
	}
	a, b := flatten(prev), flatten(next)
	if tol <= 0 {
		return floats.Equal(a, b)
	}
	return floats.EqualApprox(a, b, tol)
}
