package validation

import (
	"fmt"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// StackThresholds bounds the stacks the pipeline accepts.
type StackThresholds struct {
	// 3x3 kernels need at least three rows and columns
	MinWidth  int
	MinHeight int

	MinFrames int
	// 0 means unlimited
	MaxFrames int
}

// DefaultStackThresholds returns the default stack thresholds
func DefaultStackThresholds() StackThresholds {
	return StackThresholds{
		MinWidth:  3,
		MinHeight: 3,
		MinFrames: 1,
		MaxFrames: 0,
	}
}

// StackValidator checks the shape of decoded stacks
type StackValidator struct {
	thresholds StackThresholds
}

// NewStackValidator creates a new stack validator with default thresholds
func NewStackValidator() *StackValidator {
	return &StackValidator{thresholds: DefaultStackThresholds()}
}

// NewStackValidatorWithThresholds creates a stack validator with custom thresholds
func NewStackValidatorWithThresholds(thresholds StackThresholds) *StackValidator {
	return &StackValidator{thresholds: thresholds}
}

// Thresholds returns the active thresholds
func (sv *StackValidator) Thresholds() StackThresholds {
	return sv.thresholds
}

// ValidateStack requires every frame to share the first frame's shape and
// that shape to meet the minimum size.
func (sv *StackValidator) ValidateStack(stack *models.Stack) error {
	if stack == nil || stack.Len() < sv.thresholds.MinFrames {
		n := 0
		if stack != nil {
			n = stack.Len()
		}
		return apperrors.NewValidationError(
			fmt.Sprintf("stack has %d frames, need at least %d", n, sv.thresholds.MinFrames), nil)
	}
	if sv.thresholds.MaxFrames > 0 && stack.Len() > sv.thresholds.MaxFrames {
		return apperrors.NewValidationError(
			fmt.Sprintf("stack has %d frames, limit is %d", stack.Len(), sv.thresholds.MaxFrames), nil)
	}
	if stack.Len() == 0 {
		return nil
	}

	first := stack.Frames[0].Image
	if first == nil {
		return apperrors.NewValidationError("frame 0 has no image", nil)
	}
	if first.Width < sv.thresholds.MinWidth || first.Height < sv.thresholds.MinHeight {
		return apperrors.NewValidationError(
			fmt.Sprintf("frames are %dx%d, need at least %dx%d",
				first.Width, first.Height, sv.thresholds.MinWidth, sv.thresholds.MinHeight), nil)
	}

	for i, f := range stack.Frames[1:] {
		if f.Image == nil {
			return apperrors.NewValidationError(fmt.Sprintf("frame %d has no image", i+1), nil)
		}
		if !f.Image.SameShape(first) {
			return apperrors.NewShapeMismatchError(
				fmt.Sprintf("frame %d is %dx%d but frame 0 is %dx%d",
					i+1, f.Image.Width, f.Image.Height, first.Width, first.Height), nil)
		}
	}
	return nil
}
