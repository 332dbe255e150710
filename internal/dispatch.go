package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var ErrInvalidArguments = errors.New("invalid arguments")

const (
	ActionSetK       = "set-k"
	ActionGenerate   = "generate"
	ActionInitialize = "initialize"
	ActionCapture    = "capture"
	ActionStep       = "step"
	ActionRun        = "run"
	ActionStop       = "stop"
	ActionReset      = "reset"
)

// ActionFunc handles one named user action. It runs on the loop.
type ActionFunc func(args []string) error

// Dispatcher maps action names to controller operations, independent of
// whatever produces the actions.
type Dispatcher struct {
	loop    *Loop
	ctrl    *Controller
	actions map[string]ActionFunc
}

func NewDispatcher(loop *Loop, ctrl *Controller) *Dispatcher {
	d := &Dispatcher{loop: loop, ctrl: ctrl}
	d.actions = map[string]ActionFunc{
		ActionSetK:       d.setK,
		ActionGenerate:   d.generate,
		ActionInitialize: d.initialize,
		ActionCapture:    d.capture,
		ActionStep:       d.step,
		ActionRun:        d.run,
		ActionStop:       d.stop,
		ActionReset:      d.reset,
	}
	return d
}

// Actions lists the registered action names.
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.actions))
	for name := range d.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named action on the loop and returns its error.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args ...string) error {
	fn, ok := d.actions[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownAction)
	}

	var actionErr error
	if err := d.loop.Call(ctx, func() { actionErr = fn(args) }); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return actionErr
}

func wantArgs(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d: %w", name, n, len(args), ErrInvalidArguments)
	}
	return nil
}

func (d *Dispatcher) setK(args []string) error {
	if err := wantArgs(ActionSetK, args, 1); err != nil {
		return err
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%s: parse %q: %w", ActionSetK, args[0], ErrInvalidArguments)
	}
	return d.ctrl.SetK(k)
}

func (d *Dispatcher) generate(args []string) error {
	if err := wantArgs(ActionGenerate, args, 0); err != nil {
		return err
	}
	d.ctrl.Generate()
	return nil
}

func (d *Dispatcher) initialize(args []string) error {
	if err := wantArgs(ActionInitialize, args, 1); err != nil {
		return err
	}
	_, err := d.ctrl.Initialize(args[0])
	return err
}

func (d *Dispatcher) capture(args []string) error {
	if err := wantArgs(ActionCapture, args, 2); err != nil {
		return err
	}
	px, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%s: parse %q: %w", ActionCapture, args[0], ErrInvalidArguments)
	}
	py, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%s: parse %q: %w", ActionCapture, args[1], ErrInvalidArguments)
	}
	d.ctrl.Capture(px, py)
	return nil
}

func (d *Dispatcher) step(args []string) error {
	if err := wantArgs(ActionStep, args, 0); err != nil {
		return err
	}
	_, err := d.ctrl.Step()
	return err
}

func (d *Dispatcher) run(args []string) error {
	if err := wantArgs(ActionRun, args, 0); err != nil {
		return err
	}
	_, err := d.ctrl.Run()
	return err
}

func (d *Dispatcher) stop(args []string) error {
	if err := wantArgs(ActionStop, args, 0); err != nil {
		return err
	}
	d.ctrl.Stop()
	return nil
}

func (d *Dispatcher) reset(args []string) error {
	if err := wantArgs(ActionReset, args, 0); err != nil {
		return err
	}
	d.ctrl.Reset()
	return nil
}
