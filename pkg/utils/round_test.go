package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   float64
	}{
		{1.23456, 4, 1.2346},
		{2.675, 2, 2.68},
		{0.0004, 3, 0},
		{12.04, 3, 12.04},
		{199.95, 1, 200},
		{-1.25, 1, -1.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.v, tt.places), "Round(%v,%d)", tt.v, tt.places)
	}
}
