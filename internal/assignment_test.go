package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAssignmentIndex(t *testing.T) {
	index := BuildAssignmentIndex(ClusterMap{0: {0, 2}, 1: {1}})

	assert.Equal(t, AssignmentIndex{0: 0, 1: 1, 2: 0}, index)

	_, ok := index.Label(3)
	assert.False(t, ok, "index 3 is not listed anywhere")
}

func TestBuildAssignmentIndexDuplicateTakesHighestLabel(t *testing.T) {
	index := BuildAssignmentIndex(ClusterMap{2: {5}, 0: {5, 1}, 1: {5}})

	label, ok := index.Label(5)
	assert.True(t, ok)
	assert.Equal(t, 2, label)

	label, _ = index.Label(1)
	assert.Equal(t, 0, label)
}

func TestBuildAssignmentIndexEmpty(t *testing.T) {
	assert.Empty(t, BuildAssignmentIndex(nil))
	assert.Empty(t, BuildAssignmentIndex(ClusterMap{}))
}

func TestClusterMapClone(t *testing.T) {
	orig := ClusterMap{0: {1, 2}}
	clone := orig.Clone()
	clone[0][0] = 99

	assert.Equal(t, 1, orig[0][0])
	assert.Nil(t, ClusterMap(nil).Clone())
}

func TestDatasetStoreCopies(t *testing.T) {
	store := NewDatasetStore()
	assert.Zero(t, store.Len())
	assert.Empty(t, store.Points())

	in := []Point{{1, 2}, {3, 4}}
	store.Load(in)
	in[0] = Point{9, 9}

	out := store.Points()
	assert.Equal(t, []Point{{1, 2}, {3, 4}}, out)
	assert.Equal(t, 2, store.Len())

	out[1] = Point{0, 0}
	assert.Equal(t, Point{3, 4}, store.Points()[1])

	store.Load([]Point{{5, 5}})
	assert.Equal(t, 1, store.Len())
}

func TestPointAccessors(t *testing.T) {
	p := Point{1.5, -2}
	assert.Equal(t, 1.5, p.X())
	assert.Equal(t, -2.0, p.Y())
	assert.Equal(t, []float64{1.5, -2, 0, 1}, flatten([]Point{p, {0, 1}}))
}

func TestPointUnmarshalJSON(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[1.5, -2]`), &p))
	assert.Equal(t, Point{1.5, -2}, p)

	for _, raw := range []string{`[1]`, `[1, 2, 3]`, `[]`} {
		var q Point
		err := json.Unmarshal([]byte(raw), &q)
		assert.ErrorIs(t, err, ErrMalformedResponse, raw)
		assert.Equal(t, Point{}, q)
	}

	var pts []Point
	assert.Error(t, json.Unmarshal([]byte(`[[0, 0], ["a", 1]]`), &pts))
}
