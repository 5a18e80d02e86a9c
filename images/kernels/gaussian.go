package kernels

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidKernelSize is returned for even or zero kernel sizes.
	ErrInvalidKernelSize = errors.New("invalid kernel size")
	// ErrInvalidSigma is returned for a non-positive standard deviation.
	ErrInvalidSigma = errors.New("invalid sigma")
)

// Kernel is an immutable square convolution kernel with an odd side length.
// Weights are stored row-major.
type Kernel struct {
	size    int
	weights []float64
}

// Size returns the side length of the kernel.
func (k Kernel) Size() int { return k.size }

// Half returns the kernel radius, (size-1)/2.
func (k Kernel) Half() int { return (k.size - 1) / 2 }

// At returns the weight at (row, col), both in [0, size).
func (k Kernel) At(row, col int) float64 {
	return k.weights[row*k.size+col]
}

// Sum returns the total of all weights.
func (k Kernel) Sum() float64 {
	var s float64
	for _, w := range k.weights {
		s += w
	}
	return s
}

func (k Kernel) valid() bool {
	return k.size > 0 && k.size%2 == 1 && len(k.weights) == k.size*k.size
}

// BuildGaussian creates a normalized 2D Gaussian kernel.
// Each weight is (1 / (2*pi*sigma^2)) * exp(-(dy^2+dx^2) / (2*sigma^2)) for
// offsets in [-half, half], divided by the total so the kernel sums to 1.0.
//
// Arguments:
// - size: The side length of the kernel. Must be odd and positive.
// - sigma: Standard deviation of the Gaussian. Must be > 0.
//
// Returns:
// - Kernel: The normalized kernel.
// - error: ErrInvalidKernelSize or ErrInvalidSigma (wrapped).
//
// @example
// kernel, err := BuildGaussian(3, 1.5)
func BuildGaussian(size int, sigma float64) (Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return Kernel{}, errors.Wrapf(ErrInvalidKernelSize, "size %d must be odd and positive", size)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return Kernel{}, errors.Wrapf(ErrInvalidSigma, "sigma %v must be positive and finite", sigma)
	}

	half := (size - 1) / 2
	weights := make([]float64, size*size)

	// Normalization factor of the continuous 2D Gaussian. It cancels out after
	// dividing by the sum but keeps the raw weights comparable to the formula.
	factor := 1.0 / (2.0 * math.Pi * sigma * sigma)
	denom := 2.0 * sigma * sigma

	sum := 0.0
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			w := factor * math.Exp(-float64(dy*dy+dx*dx)/denom)
			weights[(dy+half)*size+dx+half] = w
			sum += w
		}
	}

	for i := range weights {
		weights[i] /= sum
	}

	return Kernel{size: size, weights: weights}, nil
}
