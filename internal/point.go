package internal

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidK          = errors.New("cluster count must be at least 1")
	ErrNotInitialized    = errors.New("no centroids initialized")
	ErrUnknownMethod     = errors.New("unknown initialization method")
	ErrRunInProgress     = errors.New("run in progress")
	ErrMalformedResponse = errors.New("malformed service response")
	ErrUnknownAction     = errors.New("unknown action")
	ErrStaleResponse     = errors.New("response superseded by a newer request")
)

// Point is a pair of domain coordinates. It encodes as a JSON [x, y] array.
type Point [2]float64

func (p Point) X() float64 { return p[0] }
func (p Point) Y() float64 { return p[1] }

// UnmarshalJSON rejects arrays that do not hold exactly two coordinates.
func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}
	if len(coords) != 2 {
		return fmt.Errorf("point %s: %w: want 2 coordinates, got %d", data, ErrMalformedResponse, len(coords))
	}
	p[0], p[1] = coords[0], coords[1]
	return nil
}

// ClusterMap maps a cluster label to the indices of the points assigned to it.
type ClusterMap map[int][]int

// Clone returns a deep copy.
func (m ClusterMap) Clone() ClusterMap {
	if m == nil {
		return nil
	}
	out := make(ClusterMap, len(m))
	for label, idx := range m {
		out[label] = append([]int(nil), idx...)
	}
	return out
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	return append([]Point(nil), points...)
}

// flatten lays the coordinates out as x0, y0, x1, y1, ...
func flatten(points []Point) []float64 {
	out := make([]float64, 0, 2*len(points))
	for _, p := range points {
		out = append(out, p[0], p[1])
	}
	return out
}

type InitMode string

const (
	ModeNone      InitMode = ""
	ModeManual    InitMode = "manual"
	ModeAutomatic InitMode = "automatic"
)

const (
	MethodRandom   = "random"
	MethodFarthest = "farthest"
	MethodKMeansPP = "kmeans++"
	MethodManual   = "manual"
)

// Methods lists the initialization methods understood by the controller.
var Methods = []string{MethodRandom, MethodFarthest, MethodKMeansPP, MethodManual}

func validMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseInitialized Phase = "initialized"
	PhaseStepping    Phase = "stepping"
	PhaseRunning     Phase = "running"
)
