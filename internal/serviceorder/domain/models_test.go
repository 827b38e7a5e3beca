package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextOSNumber(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"empty history starts the sequence", "", "OS-0001"},
		{"increments the suffix", "OS-0001", "OS-0002"},
		{"keeps zero padding", "OS-0041", "OS-0042"},
		{"grows past four digits", "OS-9999", "OS-10000"},
		{"garbage restarts the sequence", "banana", "OS-0001"},
		{"non numeric suffix restarts the sequence", "OS-abc", "OS-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextOSNumber(tt.last))
		})
	}
}

func TestComputeTotal(t *testing.T) {
	items := []ServiceOrderItem{
		{Total: 70},
		{Total: 50},
	}

	assert.Equal(t, 120.0, ComputeTotal(items, 0, 0))
	assert.Equal(t, 125.0, ComputeTotal(items, 10, 15))
	assert.Equal(t, 0.0, ComputeTotal(nil, 0, 0))
	assert.Equal(t, -30.0, ComputeTotal(items, 150, 0))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReady.Terminal())
}
