package models

import (
	"math"
	"sort"
)

// Frame is one image of a stack. Num is its zero-based position.
type Frame struct {
	StackID string
	Num     int
	Image   *Raster
}

// Stack is an ordered sequence of frames sharing an identifier.
type Stack struct {
	ID     string
	Frames []Frame
}

// Len returns the number of frames.
func (s *Stack) Len() int {
	return len(s.Frames)
}

// GroundTruthRow is one human judgment read from an assessment file.
type GroundTruthRow struct {
	FrameNum int
	InFocus  bool
}

// Annotation is a ground-truth row augmented with metric scores.
type Annotation struct {
	FrameNum int                    `json:"frame_num"`
	InFocus  bool                   `json:"in_focus"`
	Values   map[MetricName]float64 `json:"values"`
}

// AnnotationTable holds annotations in file order together with the
// metrics that were evaluated for every row.
type AnnotationTable struct {
	Metrics []MetricName
	Rows    []Annotation
}

// Len returns the number of rows.
func (t *AnnotationTable) Len() int {
	return len(t.Rows)
}

// Slice returns rows [from, to) as a new table sharing the metric list.
// Row contents are copied.
func (t *AnnotationTable) Slice(from, to int) *AnnotationTable {
	rows := make([]Annotation, to-from)
	copy(rows, t.Rows[from:to])
	return &AnnotationTable{Metrics: t.Metrics, Rows: rows}
}

// SortedLabels returns the InFocus labels ordered ascending by metric.
// Equal values keep file order and NaN values go last.
func (t *AnnotationTable) SortedLabels(metric MetricName) []bool {
	labels := make([]bool, len(t.Rows))
	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		labels[i] = row.InFocus
		values[i] = row.Values[metric]
	}
	return SortLabels(labels, values)
}

// SortLabels orders labels ascending by the value at the same index with a
// stable sort, NaN last. Both slices must have the same length.
func SortLabels(labels []bool, values []float64) []bool {
	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := values[idx[a]], values[idx[b]]
		if math.IsNaN(va) {
			return false
		}
		if math.IsNaN(vb) {
			return true
		}
		return va < vb
	})

	sorted := make([]bool, len(idx))
	for i, j := range idx {
		sorted[i] = labels[j]
	}
	return sorted
}
