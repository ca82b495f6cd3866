package models

// FocusMetricsRequest asks for every frame of the stack at URL to be scored.
type FocusMetricsRequest struct {
	URL     string   `json:"url" binding:"required"`
	Metrics []string `json:"metrics,omitempty"`
}

// FrameScores carries the metric values of one frame.
type FrameScores struct {
	FrameNum int                    `json:"frame_num"`
	Values   map[MetricName]float64 `json:"values"`
	// Metrics whose normalization hit a constant image
	Degenerate []MetricName `json:"degenerate,omitempty"`
}

// FocusMetricsResponse represents the response from stack scoring
type FocusMetricsResponse struct {
	StackID           string        `json:"stack_id"`
	Source            string        `json:"source"`
	Timestamp         string        `json:"timestamp"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
	Metrics           []MetricName  `json:"metrics"`
	Frames            []FrameScores `json:"frames"`
}

// ROCRequest carries per-frame labels with the matching metric values.
type ROCRequest struct {
	Labels       []bool    `json:"labels" binding:"required"`
	Values       []float64 `json:"values" binding:"required"`
	FPRThreshold *float64  `json:"fpr_threshold,omitempty"`
}

// ROCPoint is one point of a curve.
type ROCPoint struct {
	FPR float64 `json:"fpr"`
	TPR float64 `json:"tpr"`
}

// ROCResponse is the curve together with the point nearest the threshold.
type ROCResponse struct {
	Points       []ROCPoint `json:"points"`
	FPRThreshold float64    `json:"fpr_threshold"`
	Nearest      ROCPoint   `json:"nearest"`
	NearestIndex int        `json:"nearest_index"`
	AUC          float64    `json:"auc"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
