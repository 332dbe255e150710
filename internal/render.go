package internal

import "sync"

const (
	DomainMin = -3.0
	DomainMax = 3.0

	DefaultWidth  = 600
	DefaultHeight = 600

	PointRadius    = 3.0
	CentroidRadius = 8.0

	DefaultColor  = "steelblue"
	CentroidColor = "red"
)

// LinearScale maps a continuous domain onto a continuous range.
type LinearScale struct {
	Domain [2]float64
	Range  [2]float64
}

func (s LinearScale) Map(v float64) float64 {
	d := s.Domain[1] - s.Domain[0]
	if d == 0 {
		return s.Range[0]
	}
	return s.Range[0] + (v-s.Domain[0])/d*(s.Range[1]-s.Range[0])
}

func (s LinearScale) Invert(v float64) float64 {
	r := s.Range[1] - s.Range[0]
	if r == 0 {
		return s.Domain[0]
	}
	return s.Domain[0] + (v-s.Range[0])/r*(s.Domain[1]-s.Domain[0])
}

// Viewport is the fixed-size drawing region. The y axis grows downwards in
// pixel space.
type Viewport struct {
	Width  int
	Height int
}

func (v Viewport) XScale() LinearScale {
	return LinearScale{Domain: [2]float64{DomainMin, DomainMax}, Range: [2]float64{0, float64(v.Width)}}
}

func (v Viewport) YScale() LinearScale {
	return LinearScale{Domain: [2]float64{DomainMin, DomainMax}, Range: [2]float64{float64(v.Height), 0}}
}

func (v Viewport) ToPixel(p Point) (float64, float64) {
	return v.XScale().Map(p[0]), v.YScale().Map(p[1])
}

func (v Viewport) ToDomain(px, py float64) Point {
	return Point{v.XScale().Invert(px), v.YScale().Invert(py)}
}

// Palette is d3's category10 scheme.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

func ClusterColor(label int) string {
	n := len(Palette)
	return Palette[((label%n)+n)%n]
}

type Mark struct {
	X, Y   float64 // domain
	CX, CY float64 // pixel
	R      float64
	Fill   string
	Label  int // -1 when unassigned
}

type LegendEntry struct {
	Label int
	Color string
}

type Scene struct {
	Width     int
	Height    int
	Points    []Mark
	Centroids []Mark
	Legend    []LegendEntry
}

// Render turns state into drawable marks. It never mutates its inputs.
func Render(points, centroids []Point, index AssignmentIndex, k int, vp Viewport) Scene {
	scene := Scene{
		Width:     vp.Width,
		Height:    vp.Height,
		Points:    make([]Mark, 0, len(points)),
		Centroids: make([]Mark, 0, len(centroids)),
	}

	for i, p := range points {
		cx, cy := vp.ToPixel(p)
		m := Mark{X: p[0], Y: p[1], CX: cx, CY: cy, R: PointRadius, Fill: DefaultColor, Label: -1}
		if label, ok := index.Label(i); ok {
			m.Fill = ClusterColor(label)
			m.Label = label
		}
		scene.Points = append(scene.Points, m)
	}

	for i, c := range centroids {
		cx, cy := vp.ToPixel(c)
		scene.Centroids = append(scene.Centroids, Mark{
			X: c[0], Y: c[1], CX: cx, CY: cy, R: CentroidRadius, Fill: CentroidColor, Label: i,
		})
	}

	for label := 0; label < k; label++ {
		scene.Legend = append(scene.Legend, LegendEntry{Label: label, Color: ClusterColor(label)})
	}

	return scene
}

type Layer uint8

const (
	LayerPoints Layer = 1 << iota
	LayerCentroids

	LayerAll = LayerPoints | LayerCentroids
)

// Painter receives repaints from the controller.
type Painter interface {
	Paint(scene Scene, layers Layer)
}

var _ Painter = (*Canvas)(nil)

// Canvas is a retained surface: a paint only replaces the layers it names.
// It is read from outside the event loop, hence the lock.
type Canvas struct {
	mu      sync.RWMutex
	scene   Scene
	repaint int
}

func NewCanvas(vp Viewport) *Canvas {
	return &Canvas{scene: Scene{Width: vp.Width, Height: vp.Height}}
}

func (c *Canvas) Paint(scene Scene, layers Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scene.Width, c.scene.Height = scene.Width, scene.Height
	c.scene.Legend = append([]LegendEntry(nil), scene.Legend...)
	if layers&LayerPoints != 0 {
		c.scene.Points = append([]Mark(nil), scene.Points...)
	}
	if layers&LayerCentroids != 0 {
		c.scene.Centroids = append([]Mark(nil), scene.Centroids...)
	}
	c.repaint++
}

// Scene returns a copy of what is currently drawn.
func (c *Canvas) Scene() Scene {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Scene{
		Width:     c.scene.Width,
		Height:    c.scene.Height,
		Points:    append([]Mark(nil), c.scene.Points...),
		Centroids: append([]Mark(nil), c.scene.Centroids...),
		Legend:    append([]LegendEntry(nil), c.scene.Legend...),
	}
}

func (c *Canvas) Repaints() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repaint
}
