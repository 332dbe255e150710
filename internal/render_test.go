package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewportScales(t *testing.T) {
	vp := Viewport{Width: 600, Height: 400}

	tests := []struct {
		p      Point
		px, py float64
	}{
		{p: Point{-3, -3}, px: 0, py: 400},
		{p: Point{3, 3}, px: 600, py: 0},
		{p: Point{0, 0}, px: 300, py: 200},
		{p: Point{1.5, -1.5}, px: 450, py: 300},
	}

	for _, tt := range tests {
		px, py := vp.ToPixel(tt.p)
		assert.InDelta(t, tt.px, px, 1e-9)
		assert.InDelta(t, tt.py, py, 1e-9)

		back := vp.ToDomain(px, py)
		assert.InDelta(t, tt.p[0], back[0], 1e-9)
		assert.InDelta(t, tt.p[1], back[1], 1e-9)
	}
}

func TestLinearScaleDegenerate(t *testing.T) {
	s := LinearScale{Domain: [2]float64{1, 1}, Range: [2]float64{0, 0}}
	assert.Equal(t, 0.0, s.Map(5))
	assert.Equal(t, 1.0, s.Invert(5))
}

func TestClusterColorWraps(t *testing.T) {
	assert.Equal(t, "#1f77b4", ClusterColor(0))
	assert.Equal(t, ClusterColor(3), ClusterColor(13))
	assert.Equal(t, ClusterColor(9), ClusterColor(-1))
}

func TestRender(t *testing.T) {
	vp := Viewport{Width: 600, Height: 600}
	points := []Point{{0, 0}, {1, 1}, {-1, -1}, {2, 2}}
	centroids := []Point{{0.5, 0.5}, {-0.5, -0.5}}
	index := BuildAssignmentIndex(ClusterMap{0: {0, 1}, 1: {2}})

	scene := Render(points, centroids, index, 2, vp)

	require.Len(t, scene.Points, len(points))
	require.Len(t, scene.Centroids, len(centroids))
	assert.Equal(t, 600, scene.Width)

	assert.Equal(t, ClusterColor(0), scene.Points[0].Fill)
	assert.Equal(t, ClusterColor(0), scene.Points[1].Fill)
	assert.Equal(t, ClusterColor(1), scene.Points[2].Fill)
	assert.Equal(t, DefaultColor, scene.Points[3].Fill)
	assert.Equal(t, -1, scene.Points[3].Label)
	assert.Equal(t, PointRadius, scene.Points[0].R)
	assert.Equal(t, 300.0, scene.Points[0].CX)

	for _, m := range scene.Centroids {
		assert.Equal(t, CentroidColor, m.Fill)
		assert.Equal(t, CentroidRadius, m.R)
	}

	assert.Equal(t, []LegendEntry{{Label: 0, Color: ClusterColor(0)}, {Label: 1, Color: ClusterColor(1)}}, scene.Legend)
}

func TestRenderWithoutClusters(t *testing.T) {
	scene := Render([]Point{{0, 0}, {1, 1}}, nil, nil, 3, Viewport{Width: 100, Height: 100})

	for _, m := range scene.Points {
		assert.Equal(t, DefaultColor, m.Fill)
	}
	assert.Empty(t, scene.Centroids)
	assert.Len(t, scene.Legend, 3)
}

func TestCanvasKeepsUnpaintedLayers(t *testing.T) {
	vp := Viewport{Width: 600, Height: 600}
	canvas := NewCanvas(vp)

	colored := Render([]Point{{0, 0}}, []Point{{1, 1}}, AssignmentIndex{0: 0}, 1, vp)
	canvas.Paint(colored, LayerAll)

	plain := Render([]Point{{0, 0}}, []Point{{2, 2}}, nil, 1, vp)
	canvas.Paint(plain, LayerCentroids)

	scene := canvas.Scene()
	assert.Equal(t, ClusterColor(0), scene.Points[0].Fill, "points layer must be retained")
	assert.Equal(t, 2.0, scene.Centroids[0].X)
	assert.Equal(t, 2, canvas.Repaints())

	canvas.Paint(plain, LayerPoints)
	assert.Equal(t, DefaultColor, canvas.Scene().Points[0].Fill)
}
