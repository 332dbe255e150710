package internal

import "context"

// StepResult is the outcome of one refinement step on the service side.
type StepResult struct {
	Centroids    []Point
	Clusters     ClusterMap
	OldCentroids []Point
}

// ClusteringService is the remote side: it owns the dataset generator, the
// initialization heuristics and the refinement step.
type ClusteringService interface {
	Generate(ctx context.Context) ([]Point, error)
	Initialize(ctx context.Context, method string, k int) ([]Point, error)
	Step(ctx context.Context, centroids []Point, k int) (*StepResult, error)
}
