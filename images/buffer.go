package images

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// BytesPerPixel is the number of bytes used by one pixel (R, G, B, A).
const BytesPerPixel = 4

var (
	// ErrInvalidBuffer is returned when a buffer's width, height, stride and data
	// length do not describe a valid pixel grid.
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
	// ErrInvalidDimensions is returned when a requested size is not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions")
)

// PixelBuffer is an owned rectangular grid of 8-bit R, G, B, A pixels
// (non-premultiplied) addressed as a flat byte slice.
//
// Pixel (x, y) occupies Data[y*Stride+x*4 : y*Stride+x*4+4].
type PixelBuffer struct {
	// Width is the number of pixels per row.
	Width int
	// Height is the number of rows.
	Height int
	// Stride is the number of bytes per row. Always >= Width*4.
	Stride int
	// Data holds Stride*Height bytes.
	Data []byte
	// Resolution is carried through resizing untouched.
	Resolution Resolution
}

// NewPixelBuffer wraps decoded bytes into a PixelBuffer after validating the layout.
//
// Arguments:
// - data: The raw pixel bytes. The buffer takes ownership of the slice.
// - width: The width in pixels.
// - height: The height in pixels.
// - stride: The number of bytes per row.
//
// Returns:
// - *PixelBuffer: The validated buffer.
// - error: ErrInvalidBuffer (wrapped) if the layout is inconsistent.
//
// @example
// buf, err := NewPixelBuffer(make([]byte, 16*4*8), 16, 8, 16*4)
func NewPixelBuffer(data []byte, width, height, stride int) (*PixelBuffer, error) {
	if err := validateLayout(width, height, stride); err != nil {
		return nil, err
	}
	if len(data) != stride*height {
		return nil, errors.Wrapf(ErrInvalidBuffer, "data length %d does not match stride*height %d", len(data), stride*height)
	}

	return &PixelBuffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Data:   data,
	}, nil
}

// NewBlank allocates a zero-filled buffer with a tightly packed stride.
//
// Arguments:
// - width: The width in pixels.
// - height: The height in pixels.
//
// Returns:
// - *PixelBuffer: The zeroed buffer.
// - error: ErrInvalidBuffer (wrapped) if the size is negative or overflows.
func NewBlank(width, height int) (*PixelBuffer, error) {
	if width < 0 || width > math.MaxInt/BytesPerPixel {
		return nil, errors.Wrapf(ErrInvalidBuffer, "width %d out of range", width)
	}
	stride := width * BytesPerPixel
	if err := validateLayout(width, height, stride); err != nil {
		return nil, err
	}

	return &PixelBuffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Data:   make([]byte, stride*height),
	}, nil
}

// NewBlankLike allocates a zero-filled buffer with the same width, height,
// stride and resolution as b.
func NewBlankLike(b *PixelBuffer) *PixelBuffer {
	return &PixelBuffer{
		Width:      b.Width,
		Height:     b.Height,
		Stride:     b.Stride,
		Data:       make([]byte, len(b.Data)),
		Resolution: b.Resolution,
	}
}

func validateLayout(width, height, stride int) error {
	if width < 0 || height < 0 || stride < 0 {
		return errors.Wrapf(ErrInvalidBuffer, "negative layout %dx%d stride %d", width, height, stride)
	}
	if width > math.MaxInt/BytesPerPixel || stride < width*BytesPerPixel {
		return errors.Wrapf(ErrInvalidBuffer, "stride %d is smaller than width*4 for width %d", stride, width)
	}
	if height != 0 && stride > math.MaxInt/height {
		return errors.Wrapf(ErrInvalidBuffer, "stride %d * height %d overflows", stride, height)
	}
	return nil
}

// Validate re-checks the buffer invariants. Buffers assembled by hand rather
// than through NewPixelBuffer should be validated before use.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return errors.Wrap(ErrInvalidBuffer, "nil buffer")
	}
	if err := validateLayout(b.Width, b.Height, b.Stride); err != nil {
		return err
	}
	if len(b.Data) != b.Stride*b.Height {
		return errors.Wrapf(ErrInvalidBuffer, "data length %d does not match stride*height %d", len(b.Data), b.Stride*b.Height)
	}
	return nil
}

// Size returns the buffer dimensions.
func (b *PixelBuffer) Size() Dimensions {
	return Dimensions{Width: b.Width, Height: b.Height}
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (b *PixelBuffer) PixOffset(x, y int) int {
	return y*b.Stride + x*BytesPerPixel
}

// At returns the four channel bytes of pixel (x, y) as a read-only view.
func (b *PixelBuffer) At(x, y int) [4]byte {
	i := b.PixOffset(x, y)
	p := b.Data[i : i+4 : i+4]
	return [4]byte{p[0], p[1], p[2], p[3]}
}

// Pix returns the mutable four-byte slice for pixel (x, y). It is intended for
// populating a freshly allocated result buffer.
func (b *PixelBuffer) Pix(x, y int) []byte {
	i := b.PixOffset(x, y)
	return b.Data[i : i+4 : i+4]
}

// Clone returns a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	c := *b
	c.Data = make([]byte, len(b.Data))
	copy(c.Data, b.Data)
	return &c
}

// Equal reports whether both buffers have the same dimensions and identical
// visible pixels. Row padding is ignored.
func (b *PixelBuffer) Equal(o *PixelBuffer) bool {
	if b.Width != o.Width || b.Height != o.Height {
		return false
	}
	n := b.Width * BytesPerPixel
	for y := 0; y < b.Height; y++ {
		r1 := b.Data[y*b.Stride : y*b.Stride+n]
		r2 := o.Data[y*o.Stride : y*o.Stride+n]
		if string(r1) != string(r2) {
			return false
		}
	}
	return true
}

// NRGBA returns an *image.NRGBA sharing the buffer's memory.
func (b *PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Data,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage converts any image.Image into a PixelBuffer.
// *image.NRGBA sources are copied row by row; every other color model is drawn
// into a fresh NRGBA grid.
//
// Arguments:
// - img: The source image.
//
// Returns:
// - *PixelBuffer: A new buffer owning its own memory, origin at (0, 0).
// - error: ErrInvalidBuffer (wrapped) if img is nil.
func FromImage(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidBuffer, "nil image")
	}
	bounds := img.Bounds()
	dst, err := NewBlank(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	if src, ok := img.(*image.NRGBA); ok {
		n := dst.Width * BytesPerPixel
		for y := 0; y < dst.Height; y++ {
			s := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Data[y*dst.Stride:y*dst.Stride+n], src.Pix[s:s+n])
		}
		return dst, nil
	}

	draw.Draw(dst.NRGBA(), dst.NRGBA().Rect, img, bounds.Min, draw.Src)
	return dst, nil
}
