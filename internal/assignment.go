package internal

import "sort"

// AssignmentIndex maps a point index to its cluster label.
type AssignmentIndex map[int]int

// BuildAssignmentIndex inverts a ClusterMap. Labels are visited in ascending
// order, so an index listed under several labels ends up with the highest one.
func BuildAssignmentIndex(clusters ClusterMap) AssignmentIndex {
	labels := make([]int, 0, len(clusters))
	for label := range clusters {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	index := make(AssignmentIndex)
	for _, label := range labels {
		for _, i := range clusters[label] {
			index[i] = label
		}
	}
	return index
}

// Label returns the label of point i and whether it is assigned at all.
func (a AssignmentIndex) Label(i int) (int, bool) {
	label, ok := a[i]
	return label, ok
}
