package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to ItemStatus
		want     bool
	}{
		{StatusPending, StatusUploaded, true},
		{StatusPending, StatusProcessing, true},
		{StatusUploaded, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusProcessing, StatusFailed, true},
		{StatusUploaded, StatusPending, false},
		{StatusProcessing, StatusUploaded, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusUploaded, StatusUploaded, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestItemStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}
