package internal

// DatasetStore holds the current data points. The collection is only ever
// replaced as a whole.
type DatasetStore struct {
	points []Point
}

func NewDatasetStore() *DatasetStore {
	return &DatasetStore{}
}

func (s *DatasetStore) Load(points []Point) {
	s.points = clonePoints(points)
}

func (s *DatasetStore) Points() []Point {
	return clonePoints(s.points)
}

func (s *DatasetStore) Len() int {
	return len(s.points)
}
