package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/templui/travelmap/internal/metrics"
)

// Style selects the thumbnail shape.
type Style int

const (
	// StyleCircle masks the square crop with a circle and encodes PNG so the
	// corners stay transparent on map markers.
	StyleCircle Style = iota
	// StyleSquare is the plain square crop encoded as JPEG.
	StyleSquare
)

func ParseStyle(s string) Style {
	if s == "square" {
		return StyleSquare
	}
	return StyleCircle
}

func (s Style) String() string {
	if s == StyleSquare {
		return "square"
	}
	return "circle"
}

// MimeType is the content type of thumbnails produced in this style.
func (s Style) MimeType() string {
	if s == StyleSquare {
		return "image/jpeg"
	}
	return "image/png"
}

// MakeThumbnail cover-fits data into an N×N square, cropping the overflow
// around the center. It returns nil and "" when the image cannot be decoded
// or encoded; callers fall back to the full image.
func (p *Pipeline) MakeThumbnail(data []byte, style Style) ([]byte, string) {
	out, err := p.makeThumbnail(data, style)
	if err != nil {
		slog.Debug("thumbnail generation failed", "style", style.String(), "size", len(data), "error", err)
		metrics.ImageThumbnailTotal.WithLabelValues(style.String(), metrics.OutcomeFailed).Inc()
		return nil, ""
	}
	metrics.ImageThumbnailTotal.WithLabelValues(style.String(), metrics.OutcomeOK).Inc()
	return out, style.MimeType()
}

func (p *Pipeline) makeThumbnail(data []byte, style Style) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrUndecodable
	}

	img, err := p.decodeSafely(data, ParseFormat("", ""))
	if err != nil {
		return nil, err
	}

	n := p.opts.ThumbnailSize
	square := imaging.Fill(img, n, n, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	switch style {
	case StyleSquare:
		err = imaging.Encode(&buf, square, imaging.JPEG, imaging.JPEGQuality(p.opts.JPEGQuality))
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, maskCircle(square))
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maskCircle keeps only the pixels of src covered by the inscribed circle
// (destination-in). Pixels outside the circle end up fully transparent.
func maskCircle(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	mask := &circleMask{
		bounds: b,
		cx:     float64(b.Min.X) + float64(b.Dx())/2,
		cy:     float64(b.Min.Y) + float64(b.Dy())/2,
		r:      float64(min(b.Dx(), b.Dy())) / 2,
	}
	draw.DrawMask(dst, b, src, b.Min, mask, b.Min, draw.Src)
	return dst
}

// circleMask is an alpha mask with one pixel of anti-aliasing at the rim.
type circleMask struct {
	bounds image.Rectangle
	cx, cy float64
	r      float64
}

func (c *circleMask) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circleMask) Bounds() image.Rectangle {
	return c.bounds
}

func (c *circleMask) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - c.cx
	dy := float64(y) + 0.5 - c.cy
	d := math.Sqrt(dx*dx + dy*dy)

	cover := c.r - d + 0.5
	switch {
	case cover <= 0:
		return color.Alpha{}
	case cover >= 1:
		return color.Alpha{A: 0xff}
	default:
		return color.Alpha{A: uint8(cover * 0xff)}
	}
}
