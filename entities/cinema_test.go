package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatsLeft(t *testing.T) {
	byID := map[int64]SessionSummary{
		1: {TotalSeats: 50, BookedSeats: 12},
		2: {TotalSeats: 40, BookedSeats: 43},
	}

	assert.Equal(t, 38, byID[1].SeatsLeft())
	assert.Equal(t, 0, byID[2].SeatsLeft(), "overbooked sessions floor at zero")
}
