// Package codec converts between encoded image files (PNG, JPEG, BMP) and
// pixel buffers. It is the only part of the module that touches file formats.
package codec

import (
	"io"

	"github.com/disintegration/imaging"
	"github.com/nvr-ai/go-resize/images"
	"github.com/pkg/errors"
)

// DefaultJPEGQuality is used when a Codec has no explicit quality.
const DefaultJPEGQuality = 95

// ErrUnsupportedFormat is returned when a file extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Codec decodes and encodes pixel buffers. The zero value is ready to use.
type Codec struct {
	// JPEGQuality is the JPEG encoder quality in [1, 100]. Zero means DefaultJPEGQuality.
	JPEGQuality int
}

var formats = map[images.ImageFormat]imaging.Format{
	images.FormatJPEG: imaging.JPEG,
	images.FormatPNG:  imaging.PNG,
	images.FormatBMP:  imaging.BMP,
}

// Decode reads an encoded image from r.
//
// Arguments:
// - r: The encoded image stream.
//
// Returns:
// - *images.PixelBuffer: The decoded pixels, converted to non-premultiplied RGBA.
// - error: An error if the stream can not be decoded.
func (c Codec) Decode(r io.Reader) (*images.PixelBuffer, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return images.FromImage(img)
}

// Load decodes the image file at path.
func (c Codec) Load(path string) (*images.PixelBuffer, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	return images.FromImage(img)
}

// Encode writes buf to w in the given format.
//
// Arguments:
// - w: Destination stream.
// - buf: The pixels to encode.
// - format: One of FormatJPEG, FormatPNG or FormatBMP.
//
// Returns:
// - error: ErrUnsupportedFormat, images.ErrInvalidBuffer or an encoder error.
func (c Codec) Encode(w io.Writer, buf *images.PixelBuffer, format images.ImageFormat) error {
	f, ok := formats[format]
	if !ok {
		return errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	if err := buf.Validate(); err != nil {
		return err
	}
	if err := imaging.Encode(w, buf.NRGBA(), f, imaging.JPEGQuality(c.quality())); err != nil {
		return errors.Wrapf(err, "failed to encode %s", format)
	}
	return nil
}

// Save encodes buf to path, choosing the format from the file extension.
func (c Codec) Save(buf *images.PixelBuffer, path string) error {
	if images.FormatFromPath(path) == images.FormatUnknown {
		return errors.Wrapf(ErrUnsupportedFormat, "file %s", path)
	}
	if err := buf.Validate(); err != nil {
		return err
	}
	if err := imaging.Save(buf.NRGBA(), path, imaging.JPEGQuality(c.quality())); err != nil {
		return errors.Wrapf(err, "failed to save image %s", path)
	}
	return nil
}

func (c Codec) quality() int {
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		return DefaultJPEGQuality
	}
	return c.JPEGQuality
}
