package ports

import "image"

// ImageFormat identifies an image encoding format.
type ImageFormat int

const (
	// FormatPNG is lossless PNG.
	FormatPNG ImageFormat = iota
	// FormatJPEG is lossy JPEG.
	FormatJPEG
)

// Renderer abstracts image composition and encoding for debug output.
type Renderer interface {
	// ContactSheet lays out frames left to right, top to bottom on a
	// grid with the given number of columns.
	ContactSheet(frames []image.Image, columns int) image.Image

	// EncodeImage encodes an image to the specified format. Quality is
	// only used for JPEG.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}
