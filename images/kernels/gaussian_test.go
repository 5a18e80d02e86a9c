package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGaussianNormalized(t *testing.T) {
	tests := []struct {
		size  int
		sigma float64
	}{
		{1, 0.5},
		{3, 1.5},
		{5, 1.0},
		{7, 0.3},
		{9, 4.0},
		{15, 12.5},
	}

	for _, tt := range tests {
		k, err := BuildGaussian(tt.size, tt.sigma)
		require.NoError(t, err)
		assert.Equal(t, tt.size, k.Size())
		assert.InDelta(t, 1.0, k.Sum(), 1e-9, "size=%d sigma=%v", tt.size, tt.sigma)
	}
}

func TestBuildGaussianShape(t *testing.T) {
	k, err := BuildGaussian(3, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1, k.Half())

	// Reference values straight from the formula.
	center := 1.0
	edge := math.Exp(-1.0 / 4.5)
	corner := math.Exp(-2.0 / 4.5)
	sum := center + 4*edge + 4*corner

	assert.InDelta(t, center/sum, k.At(1, 1), 1e-12)
	assert.InDelta(t, edge/sum, k.At(0, 1), 1e-12)
	assert.InDelta(t, corner/sum, k.At(2, 2), 1e-12)

	// Symmetric in both axes and peaked at the center.
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, k.At(r, c), k.At(2-r, c))
			assert.Equal(t, k.At(r, c), k.At(r, 2-c))
			assert.Equal(t, k.At(r, c), k.At(c, r))
			assert.LessOrEqual(t, k.At(r, c), k.At(1, 1))
		}
	}
}

func TestBuildGaussianSingleTap(t *testing.T) {
	k, err := BuildGaussian(1, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 0, k.Half())
	assert.Equal(t, 1.0, k.At(0, 0))
}

func TestBuildGaussianErrors(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		sigma float64
		want  error
	}{
		{"zero size", 0, 1.5, ErrInvalidKernelSize},
		{"even size", 4, 1.5, ErrInvalidKernelSize},
		{"negative size", -3, 1.5, ErrInvalidKernelSize},
		{"zero sigma", 3, 0, ErrInvalidSigma},
		{"negative sigma", 3, -1, ErrInvalidSigma},
		{"NaN sigma", 3, math.NaN(), ErrInvalidSigma},
		{"infinite sigma", 3, math.Inf(1), ErrInvalidSigma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGaussian(tt.size, tt.sigma)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
