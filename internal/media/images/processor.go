// Package images validates uploaded images, downscales oversized ones and
// computes BlurHash placeholders.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Supported content types.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"
)

// jpegQuality is used when a resized image is re-encoded.
const jpegQuality = 88

// ErrUnsupportedFormat is returned for anything that is not JPEG, PNG or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Prepared is an image ready for upload.
type Prepared struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	BlurHash    string
}

// Processor prepares uploaded images.
type Processor struct {
	maxWidth int
	logger   *slog.Logger
}

// NewProcessor creates a Processor that downscales images wider than maxWidth.
// A maxWidth of zero disables resizing.
func NewProcessor(maxWidth int, logger *slog.Logger) *Processor {
	return &Processor{
		maxWidth: maxWidth,
		logger:   logger,
	}
}

// DetectContentType sniffs the image type from magic bytes.
// Returns an empty string when the data is not a supported image.
func DetectContentType(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return ContentTypeJPEG
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return ContentTypePNG
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return ContentTypeWebP
	default:
		return ""
	}
}

// Prepare validates data, downscales it if needed and computes its BlurHash.
// Images within bounds keep their original bytes.
func (p *Processor) Prepare(data []byte) (*Prepared, error) {
	contentType := DetectContentType(data)
	if contentType == "" {
		return nil, ErrUnsupportedFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := &Prepared{
		Data:        data,
		ContentType: contentType,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}

	if p.maxWidth > 0 && out.Width > p.maxWidth {
		resized := downscale(img, p.maxWidth)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode resized image: %w", err)
		}

		p.logger.Debug("downscaled image",
			"from_width", out.Width,
			"to_width", resized.Bounds().Dx(),
			"bytes", buf.Len(),
		)

		img = resized
		out.Data = buf.Bytes()
		out.ContentType = ContentTypeJPEG
		out.Width = resized.Bounds().Dx()
		out.Height = resized.Bounds().Dy()
	}

	hash, err := ComputeBlurHash(img)
	if err != nil {
		// A missing placeholder never blocks an upload.
		p.logger.Warn("failed to compute blurhash", "error", err)
	}
	out.BlurHash = hash

	return out, nil
}

// downscale resizes img to width, keeping the aspect ratio.
func downscale(img image.Image, width int) image.Image {
	b := img.Bounds()
	height := max(b.Dy()*width/b.Dx(), 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
