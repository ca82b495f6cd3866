package models

// Measurement is one metric value for one frame, the row format of the
// measurement CSV.
type Measurement struct {
	StackID     string     `json:"stack_id"`
	FrameNum    uint32     `json:"frame_num"`
	MetricName  MetricName `json:"metric_name"`
	MetricValue float64    `json:"metric_value"`
}

// SummaryRow is the TPR reached at the curve point nearest an FPR threshold.
// Per-assessment rows carry the assessment id; aggregated rows leave it
// empty.
type SummaryRow struct {
	Assessment string     `json:"assessment,omitempty"`
	Modality   Modality   `json:"modality"`
	Metric     MetricName `json:"metric"`
	FPR        float64    `json:"fpr"`
	TPR        float64    `json:"tpr"`
}

// Assessment is one human annotator's ground truth for a stack.
type Assessment struct {
	ID   string
	Rows []GroundTruthRow
}

// StackMetadata describes a decoded stack.
// Shared by storage and transport.
type StackMetadata struct {
	Source        string `json:"source"`
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int64  `json:"content_length,omitempty"`
	Frames        int    `json:"frames"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
}
