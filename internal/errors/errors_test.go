package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsType_ThroughWrapping(t *testing.T) {
	base := NewUnknownMetricError("focus_of_doom")
	wrapped := fmt.Errorf("computing frame 3: %w", base)

	assert.True(t, IsType(base, ErrorTypeUnknownMetric))
	assert.True(t, IsType(wrapped, ErrorTypeUnknownMetric))
	assert.False(t, IsType(wrapped, ErrorTypeEmptyClass))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeUnknownMetric))
	assert.False(t, IsType(nil, ErrorTypeUnknownMetric))
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown metric", NewUnknownMetricError("x"), http.StatusBadRequest},
		{"unknown modality", NewUnknownModalityError("phase"), http.StatusBadRequest},
		{"empty class", NewEmptyClassError(0, 4), http.StatusUnprocessableEntity},
		{"shape mismatch wrapped", fmt.Errorf("load: %w", NewShapeMismatchError("too many rows", nil)), http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", nil), http.StatusGatewayTimeout},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}

func TestAppError_Message(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := NewProcessingError("could not write", cause)

	assert.Equal(t, "processing: could not write (caused by: disk on fire)", err.Error())
	assert.ErrorIs(t, err, cause)

	empty := NewEmptyClassError(3, 0)
	assert.Contains(t, empty.Error(), "empty_class")
	assert.Equal(t, "positives=3 negatives=0", empty.Details)
}
