package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestTracker(t *testing.T) {
	t.Run("emits in order", func(t *testing.T) {
		tracker := NewTracker()
		tracker.Emit(models.StepValidation, 5, "validating inputs")
		tracker.Emit(models.StepExtractRecords, 20, "extracting records")
		tracker.Close()

		var steps []string
		for event := range tracker.Events() {
			steps = append(steps, event.Step)
		}
		assert.Equal(t, []string{models.StepValidation, models.StepExtractRecords}, steps)
	})

	t.Run("never blocks when the buffer is full", func(t *testing.T) {
		tracker := NewTracker()
		for i := 0; i < defaultBuffer*2; i++ {
			tracker.Emit(models.StepProcessing, i, "working")
		}
		assert.Equal(t, defaultBuffer*2-1, tracker.Latest().Percent)
	})

	t.Run("emit after close is safe", func(t *testing.T) {
		tracker := NewTracker()
		tracker.Close()
		tracker.Emit(models.StepComplete, 100, "done")
		assert.Equal(t, 100, tracker.Latest().Percent)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		tracker := NewTracker()
		tracker.Close()
		tracker.Close()
	})
}

func TestScalePercent(t *testing.T) {
	require.Equal(t, 80, ScalePercent(70, 20, 0, 2))
	require.Equal(t, 90, ScalePercent(70, 20, 1, 2))
	require.Equal(t, 90, ScalePercent(60, 30, 9, 10))
	require.Equal(t, 100, ScalePercent(70, 30, 0, 0))
}
