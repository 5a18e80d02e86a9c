// Package resizer resizes pixel buffers to a requested size while keeping the
// source aspect ratio, band-limiting the image with a Gaussian pre-filter
// whenever either axis shrinks.
package resizer

import (
	"github.com/nvr-ai/go-resize/images"
	"github.com/nvr-ai/go-resize/images/kernels"
	"github.com/pkg/errors"
)

const (
	// DefaultKernelSize is the side length of the anti-aliasing kernel.
	DefaultKernelSize = 3
	// DefaultSigma is the standard deviation of the anti-aliasing kernel.
	DefaultSigma = 1.5
)

// PrefilterFunc band-limits a buffer before it is downscaled. It must return a
// new buffer and leave src untouched.
type PrefilterFunc func(src *images.PixelBuffer) (*images.PixelBuffer, error)

// Resizer holds the knobs of the resize pipeline. The zero value behaves like Default().
// A Resizer holds no mutable state and is safe for concurrent use.
type Resizer struct {
	// Filter is the interpolation used for the final resample.
	Filter Filter
	// KernelSize is the Gaussian kernel side length. Zero means DefaultKernelSize.
	KernelSize int
	// Sigma is the Gaussian standard deviation. Zero means DefaultSigma.
	Sigma float64
	// Convolve controls border handling and row parallelism of the pre-filter.
	Convolve kernels.Options
	// Prefilter replaces the Gaussian pre-filter when set.
	Prefilter PrefilterFunc
}

// Default returns the resizer used by the package-level Resize: bicubic
// resampling after a 3x3, sigma 1.5 Gaussian that skips border pixels.
func Default() *Resizer {
	return &Resizer{
		Filter:     FilterBicubic,
		KernelSize: DefaultKernelSize,
		Sigma:      DefaultSigma,
	}
}

// Resize resizes src with the default resizer.
func Resize(src *images.PixelBuffer, targetW, targetH int) (*images.PixelBuffer, error) {
	return Default().Resize(src, targetW, targetH)
}

// EffectiveSize computes the aspect-preserving output size for a request.
//
// The axis comparison uses truncating integer division on both sides,
// origW/origH > reqW/reqH. When the source ratio wins, the width is taken from
// the request and the height becomes min(origH*reqW/origW, reqH). Otherwise
// (including ties) the height is taken from the request and the width becomes
// min(origW*reqH/origH, reqW). A computed axis is never less than one pixel.
//
// Arguments:
// - orig: The source size. Both axes must be positive.
// - req: The requested size. Both axes must be positive.
//
// Returns:
// - The effective size, never larger than req on either axis.
//
// @example
// EffectiveSize(Dimensions{1000, 800}, Dimensions{200, 250}) // Returns {200, 160}
func EffectiveSize(orig, req images.Dimensions) images.Dimensions {
	eff := req
	if orig.Width/orig.Height > req.Width/req.Height {
		eff.Height = max(1, min(orig.Height*req.Width/orig.Width, req.Height))
	} else {
		eff.Width = max(1, min(orig.Width*req.Height/orig.Height, req.Width))
	}
	return eff
}

// IsDownscale reports whether going from orig to eff shrinks at least one axis.
func IsDownscale(orig, eff images.Dimensions) bool {
	return eff.Width < orig.Width || eff.Height < orig.Height
}

// Resize resizes src toward (targetW, targetH).
//
// A request equal to the source size returns src itself. Otherwise the
// effective size is computed by EffectiveSize, the source is pre-filtered when
// that size shrinks either axis, and the result is resampled with r.Filter.
// The output therefore matches the request on at least one axis and never
// exceeds it on either. The source buffer is never modified.
//
// Arguments:
// - src: The source buffer.
// - targetW: The requested width in pixels.
// - targetH: The requested height in pixels.
//
// Returns:
// - *images.PixelBuffer: The resized buffer with src's resolution metadata.
// - error: images.ErrInvalidBuffer or images.ErrInvalidDimensions (wrapped).
//
// @example
// out, err := resizer.Default().Resize(buf, 200, 250)
func (r *Resizer) Resize(src *images.PixelBuffer, targetW, targetH int) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if targetW <= 0 || targetH <= 0 {
		return nil, errors.Wrapf(images.ErrInvalidDimensions, "target %dx%d", targetW, targetH)
	}

	orig := src.Size()
	if orig.Width == targetW && orig.Height == targetH {
		return src, nil
	}
	if orig.Width == 0 || orig.Height == 0 {
		return nil, errors.Wrapf(images.ErrInvalidBuffer, "cannot resize empty %dx%d buffer", orig.Width, orig.Height)
	}

	eff := EffectiveSize(orig, images.Dimensions{Width: targetW, Height: targetH})

	work := src
	if IsDownscale(orig, eff) {
		filtered, err := r.prefilter(src)
		if err != nil {
			return nil, errors.Wrap(err, "pre-filter failed")
		}
		work = filtered
	}

	out, err := resample(work, eff, r.Filter)
	if err != nil {
		return nil, errors.Wrapf(err, "resample to %dx%d failed", eff.Width, eff.Height)
	}
	out.Resolution = src.Resolution

	return out, nil
}

func (r *Resizer) prefilter(src *images.PixelBuffer) (*images.PixelBuffer, error) {
	if r.Prefilter != nil {
		return r.Prefilter(src)
	}

	size, sigma := r.KernelSize, r.Sigma
	if size == 0 {
		size = DefaultKernelSize
	}
	if sigma == 0 {
		sigma = DefaultSigma
	}

	k, err := kernels.BuildGaussian(size, sigma)
	if err != nil {
		return nil, err
	}
	return kernels.Convolve(src, k, r.Convolve)
}
