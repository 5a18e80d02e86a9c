// Package images - Pixel buffer definitions shared by the resampling pipeline.
package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image file formats.
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatUnknown is returned for extensions the codec cannot handle.
	FormatUnknown ImageFormat = ""
)

// FormatFromPath returns the image format implied by the file extension of path.
//
// Arguments:
// - path: File name or path whose extension is inspected.
//
// Returns:
// - The ImageFormat for the extension, or FormatUnknown.
//
// @example
// FormatFromPath("cat.JPG") // Returns FormatJPEG
func FormatFromPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".bmp":
		return FormatBMP
	default:
		return FormatUnknown
	}
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	// The width in pixels.
	Width int `json:"width" yaml:"width"`
	// The height in pixels.
	Height int `json:"height" yaml:"height"`
}

// Resolution is the physical pixel density carried alongside a buffer.
// The zero value means unknown.
type Resolution struct {
	// Horizontal dots per inch.
	X float64 `json:"x" yaml:"x"`
	// Vertical dots per inch.
	Y float64 `json:"y" yaml:"y"`
}
