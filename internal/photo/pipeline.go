// Package photo turns uploaded photo bytes into a storable display image and
// a fixed-size thumbnail.
//
// Normalize policy, in order:
//  1. HEIC/HEIF is decoded and re-encoded as JPEG. A payload that cannot be
//     decoded is rejected with ErrUndecodable, never stored as is.
//  2. JPEG is re-encoded at the configured quality to bound storage size.
//     This is lossy: normalizing a normalized JPEG loses a little more.
//  3. PNG above the size threshold is converted to JPEG.
//  4. Anything else passes through unchanged if its bytes decode as an
//     image. The stored type is taken from the bytes, never from the client.
//     Payloads that are not images are rejected with ErrUndecodable.
//
// Encoder failures in steps 2 and 3 fall back to the original bytes and type
// and are reported through Normalized.Degraded. Nothing in this package does
// I/O; persistence is the caller's job.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	_ "image/gif"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp"

	"github.com/templui/travelmap/internal/metrics"
)

// ErrUndecodable is the one fatal pipeline outcome: the upload is a HEIC/HEIF
// payload that cannot be decoded, or a payload of unknown type that is not an
// image at all. Either way there is nothing a browser could show.
var ErrUndecodable = errors.New("image could not be decoded")

// sniffedMime maps image.DecodeConfig format names to the stored MIME type.
var sniffedMime = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

type Options struct {
	JPEGQuality   int
	PNGThreshold  int64 // PNGs larger than this many bytes are converted to JPEG
	ThumbnailSize int   // N for the N×N thumbnail
}

func DefaultOptions() Options {
	return Options{
		JPEGQuality:   80,
		PNGThreshold:  1 << 20,
		ThumbnailSize: 200,
	}
}

// Normalized is the storable form of an upload.
type Normalized struct {
	Data     []byte
	MimeType string
	Source   Format

	// Converted is set when Data was re-encoded.
	Converted bool

	// Degraded is set when re-encoding failed and Data is the original upload.
	Degraded bool
	Cause    error
}

type Pipeline struct {
	opts       Options
	decodeHEIC func(io.Reader) (image.Image, error)
}

// Option customizes a Pipeline beyond its Options.
type Option func(*Pipeline)

// WithHEICDecoder replaces the bundled HEIC/HEIF decoder.
func WithHEICDecoder(decode func(io.Reader) (image.Image, error)) Option {
	return func(p *Pipeline) {
		p.decodeHEIC = decode
	}
}

func New(opts Options, extra ...Option) *Pipeline {
	def := DefaultOptions()
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = def.JPEGQuality
	}
	if opts.PNGThreshold <= 0 {
		opts.PNGThreshold = def.PNGThreshold
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = def.ThumbnailSize
	}
	p := &Pipeline{
		opts:       opts,
		decodeHEIC: heic.Decode,
	}
	for _, o := range extra {
		o(p)
	}
	return p
}

func (p *Pipeline) Options() Options {
	return p.opts
}

// Normalize applies the storage policy to one upload. The only error it
// returns wraps ErrUndecodable.
func (p *Pipeline) Normalize(data []byte, declaredMime, filename string) (Normalized, error) {
	format := ParseFormat(declaredMime, filename)
	mimeType := format.MimeType()
	if format == FormatOther {
		name, err := sniffFormat(data)
		if err != nil {
			metrics.ImageNormalizeTotal.WithLabelValues(format.String(), metrics.OutcomeRejected).Inc()
			return Normalized{}, fmt.Errorf("%w: declared %q but content is not an image: %v", ErrUndecodable, declaredMime, err)
		}
		switch name {
		case "jpeg":
			format = FormatJPEG
		case "png":
			format = FormatPNG
		}
		mimeType = sniffedMime[name]
	}
	passthrough := Normalized{Data: data, MimeType: mimeType, Source: format}

	switch {
	case format.IsHEIF():
		img, err := p.decodeSafely(data, format)
		if err != nil {
			metrics.ImageNormalizeTotal.WithLabelValues(format.String(), metrics.OutcomeRejected).Inc()
			return Normalized{}, fmt.Errorf("%w: %s payload: %v", ErrUndecodable, format, err)
		}
		out, err := p.encodeJPEG(img)
		if err != nil {
			// No lossless fallback exists for a HEIC the browser cannot show
			metrics.ImageNormalizeTotal.WithLabelValues(format.String(), metrics.OutcomeRejected).Inc()
			return Normalized{}, fmt.Errorf("%w: re-encoding %s as jpeg: %v", ErrUndecodable, format, err)
		}
		metrics.ImageNormalizeTotal.WithLabelValues(format.String(), metrics.OutcomeConverted).Inc()
		return Normalized{Data: out, MimeType: FormatJPEG.MimeType(), Source: format, Converted: true}, nil

	case format == FormatJPEG:
		return p.reencode(passthrough, metrics.OutcomeRecompressed), nil

	case format == FormatPNG && int64(len(data)) > p.opts.PNGThreshold:
		return p.reencode(passthrough, metrics.OutcomeConverted), nil

	default:
		metrics.ImageNormalizeTotal.WithLabelValues(format.String(), metrics.OutcomePassthrough).Inc()
		return passthrough, nil
	}
}

// reencode decodes the original and writes it back as JPEG, falling back to
// the original on any failure.
func (p *Pipeline) reencode(orig Normalized, outcome string) Normalized {
	img, err := p.decodeSafely(orig.Data, orig.Source)
	if err == nil {
		if orig.Source == FormatPNG {
			img = flatten(img)
		}
		var out []byte
		out, err = p.encodeJPEG(img)
		if err == nil {
			metrics.ImageNormalizeTotal.WithLabelValues(orig.Source.String(), outcome).Inc()
			return Normalized{Data: out, MimeType: FormatJPEG.MimeType(), Source: orig.Source, Converted: true}
		}
	}

	slog.Warn("image re-encode failed, keeping original bytes",
		"format", orig.Source.String(),
		"size", len(orig.Data),
		"error", err,
	)
	metrics.ImageNormalizeTotal.WithLabelValues(orig.Source.String(), metrics.OutcomeDegraded).Inc()
	orig.Degraded = true
	orig.Cause = err
	return orig
}

// decodeSafely decodes data with EXIF orientation applied. Re-encoding drops
// EXIF, so the rotation has to be baked into the pixels here. Decoder panics
// on hostile input are turned into errors.
func (p *Pipeline) decodeSafely(data []byte, format Format) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	if format.IsHEIF() {
		return p.decodeHEIC(bytes.NewReader(data))
	}

	img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// Some phones label HEIC uploads as JPEG; give the HEIC decoder a try
	// before giving up.
	if heicImg, heicErr := p.decodeHEIC(bytes.NewReader(data)); heicErr == nil {
		return heicImg, nil
	}
	return nil, err
}

// sniffFormat returns the registered decoder name for data, reading only the
// image header.
func sniffFormat(data []byte) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	_, name, err = image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if _, ok := sniffedMime[name]; !ok {
		return "", fmt.Errorf("unsupported image format %q", name)
	}
	return name, nil
}

func (p *Pipeline) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.opts.JPEGQuality))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten composites img over white so transparent PNG regions do not turn
// black once alpha is dropped by the JPEG encoder.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
