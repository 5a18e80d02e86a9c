package kernels

import (
	"sync"

	"github.com/nvr-ai/go-resize/images"
	"github.com/pkg/errors"
)

// EdgeMode defines how pixels closer than the kernel radius to an edge are treated.
// - Skip: border pixels are not written and keep the zero value of the result.
// - Clamp: repeats edge pixels.
// - Mirror: reflects coordinates (no duplication of the edge pixel).
// - Wrap: tiles the image.
type EdgeMode int

const (
	EdgeSkip EdgeMode = iota
	EdgeClamp
	EdgeMirror
	EdgeWrap
)

// String returns the configuration name of the edge mode.
func (m EdgeMode) String() string {
	switch m {
	case EdgeSkip:
		return "skip"
	case EdgeClamp:
		return "clamp"
	case EdgeMirror:
		return "mirror"
	case EdgeWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// ParseEdgeMode maps a configuration name to an EdgeMode.
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch s {
	case "", "skip":
		return EdgeSkip, nil
	case "clamp":
		return EdgeClamp, nil
	case "mirror":
		return EdgeMirror, nil
	case "wrap":
		return EdgeWrap, nil
	default:
		return EdgeSkip, errors.Errorf("unknown edge mode %q", s)
	}
}

// Options configures a Convolve call. The zero value is the faithful
// single-threaded border-skipping pass.
type Options struct {
	Edge     EdgeMode // Border handling.
	Parallel bool     // Split rows across goroutines (good for 1080p+).
}

// colorChannels is the number of convolved channels. Alpha is not convolved.
const colorChannels = 3

// Convolve applies kernel k to the R, G and B channels of src and returns a new
// buffer with the same width, height and stride.
//
// Every processed pixel gets the kernel-weighted sum of its k*k neighbourhood,
// clamped to [0, 255] and truncated, and its alpha forced to 255. With
// EdgeSkip, pixels within k.Half() of any edge are not processed and stay zero.
// The source buffer is never modified.
//
// Performance: O(W*H*k^2). Rows are scanned in memory order and the three color
// channels are accumulated together so each neighbourhood byte is read once.
//
// Arguments:
// - src: The source buffer.
// - k: A kernel built by BuildGaussian.
// - opt: Edge handling and parallelism.
//
// Returns:
// - *images.PixelBuffer: The convolved buffer.
// - error: ErrInvalidBuffer or ErrInvalidKernelSize (wrapped) on contract violation.
func Convolve(src *images.PixelBuffer, k Kernel, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !k.valid() {
		return nil, errors.Wrapf(ErrInvalidKernelSize, "kernel of size %d is not initialized", k.size)
	}

	dst := images.NewBlankLike(src)
	w, h := src.Width, src.Height
	half := k.Half()

	rowTask := func(y int) {
		interiorRow := y >= half && y < h-half
		for x := 0; x < w; x++ {
			if interiorRow && x >= half && x < w-half {
				convolveInterior(src, dst, k, x, y)
				continue
			}
			if opt.Edge == EdgeSkip {
				continue
			}
			convolveMapped(src, dst, k, x, y, opt.Edge)
		}
	}

	first, last := 0, h
	if opt.Edge == EdgeSkip {
		first, last = half, h-half
	}
	if first >= last {
		return dst, nil
	}

	if !opt.Parallel || last-first < 4 {
		for y := first; y < last; y++ {
			rowTask(y)
		}
		return dst, nil
	}

	// Rows are written to disjoint regions of dst, so chunks need no locking.
	n := last - first
	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := first; start < last; start += chunk {
		end := min(start+chunk, last)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				rowTask(y)
			}
		}(start, end)
	}
	wg.Wait()

	return dst, nil
}

// convolveInterior handles a pixel whose whole neighbourhood lies inside src.
func convolveInterior(src, dst *images.PixelBuffer, k Kernel, x, y int) {
	half := k.Half()
	stride := src.Stride
	center := y*stride + x*images.BytesPerPixel

	var rgb [colorChannels]float64
	ki := 0
	for fy := -half; fy <= half; fy++ {
		row := center + fy*stride
		for fx := -half; fx <= half; fx++ {
			p := row + fx*images.BytesPerPixel
			px := src.Data[p : p+colorChannels : p+colorChannels]
			wgt := k.weights[ki]
			ki++
			rgb[0] += float64(px[0]) * wgt
			rgb[1] += float64(px[1]) * wgt
			rgb[2] += float64(px[2]) * wgt
		}
	}

	store(dst.Data[center:center+4:center+4], rgb)
}

// convolveMapped handles a border pixel by remapping out-of-range coordinates.
func convolveMapped(src, dst *images.PixelBuffer, k Kernel, x, y int, edge EdgeMode) {
	half := k.Half()

	var rgb [colorChannels]float64
	ki := 0
	for fy := -half; fy <= half; fy++ {
		sy := mapCoord(y+fy, src.Height, edge)
		for fx := -half; fx <= half; fx++ {
			sx := mapCoord(x+fx, src.Width, edge)
			p := src.PixOffset(sx, sy)
			wgt := k.weights[ki]
			ki++
			rgb[0] += float64(src.Data[p+0]) * wgt
			rgb[1] += float64(src.Data[p+1]) * wgt
			rgb[2] += float64(src.Data[p+2]) * wgt
		}
	}

	store(dst.Pix(x, y), rgb)
}

// store writes clamped, truncated color sums and an opaque alpha.
func store(px []byte, rgb [colorChannels]float64) {
	for c := 0; c < colorChannels; c++ {
		px[c] = uint8(Clamp(rgb[c], 0, 255))
	}
	px[3] = 255
}

// Clamp restricts a value to the range [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// mapCoord maps an index i to [0, n) according to edge mode.
// For Clamp: clamp to [0, n-1].
// For Mirror: reflect indices ... -2,-1,0,1,2, ... -> 1,0,0,1,2, ...
// For Wrap: modulo wrap to [0, n).
func mapCoord(i, n int, mode EdgeMode) int {
	switch mode {
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	case EdgeWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

// chooseChunk picks a row chunk size that balances goroutine overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
