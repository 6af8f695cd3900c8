package photo

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand/v2"
	"net/http"
	"testing"
)

// fixtureImage draws a gradient with optional per-pixel noise. Noise makes
// encoders work hard, which is what the size assertions need.
func fixtureImage(w, h int, noise bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewPCG(7, 11))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8(x * 255 / w)
			g := uint8(y * 255 / h)
			b := uint8((x + y) % 256)
			if noise {
				r ^= uint8(rng.IntN(256))
				g ^= uint8(rng.IntN(256))
				b ^= uint8(rng.IntN(256))
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return img
}

func fixtureJPEG(t *testing.T, w, h, quality int, noise bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, fixtureImage(w, h, noise), &jpeg.Options{Quality: quality})
	if err != nil {
		t.Fatalf("encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}

func fixturePNG(t *testing.T, w, h int, noise bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := png.Encode(&buf, fixtureImage(w, h, noise))
	if err != nil {
		t.Fatalf("encode png fixture: %v", err)
	}
	return buf.Bytes()
}

func failingHEIC(io.Reader) (image.Image, error) {
	return nil, errors.New("unsupported heif brand")
}

func fakeHEIC(w, h int) func(io.Reader) (image.Image, error) {
	return func(io.Reader) (image.Image, error) {
		return fixtureImage(w, h, false), nil
	}
}

func newTestPipeline(opts Options) *Pipeline {
	return New(opts, WithHEICDecoder(failingHEIC))
}

func TestNormalizeJPEGRecompresses(t *testing.T) {
	p := newTestPipeline(DefaultOptions())
	orig := fixtureJPEG(t, 900, 600, 100, true)

	got, err := p.Normalize(orig, "image/jpeg", "trip.jpg")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", got.MimeType)
	}
	if got.Degraded || !got.Converted {
		t.Errorf("Degraded = %v, Converted = %v", got.Degraded, got.Converted)
	}
	if len(got.Data) >= len(orig) {
		t.Errorf("recompressed size %d not smaller than original %d", len(got.Data), len(orig))
	}
	if ct := http.DetectContentType(got.Data); ct != "image/jpeg" {
		t.Errorf("output sniffed as %q", ct)
	}
}

func TestNormalizeJPEGIsFormatIdempotent(t *testing.T) {
	p := newTestPipeline(DefaultOptions())
	first, err := p.Normalize(fixtureJPEG(t, 320, 240, 95, true), "image/jpeg", "a.jpg")
	if err != nil {
		t.Fatalf("first Normalize: %v", err)
	}

	second, err := p.Normalize(first.Data, first.MimeType, "a.jpg")
	if err != nil {
		t.Fatalf("second Normalize: %v", err)
	}
	if second.MimeType != "image/jpeg" {
		t.Errorf("second pass MimeType = %q", second.MimeType)
	}
	if second.Degraded {
		t.Errorf("second pass degraded: %v", second.Cause)
	}
}

func TestNormalizeDegradesCorruptJPEGAndPNG(t *testing.T) {
	p := newTestPipeline(Options{PNGThreshold: 16})
	garbage := []byte("definitely not an image, just some bytes")

	tests := []struct {
		name     string
		mime     string
		filename string
	}{
		{name: "corrupt jpeg", mime: "image/jpeg", filename: "broken.jpg"},
		{name: "corrupt png over threshold", mime: "image/png", filename: "broken.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Normalize(garbage, tt.mime, tt.filename)
			if err != nil {
				t.Fatalf("Normalize returned error %v", err)
			}
			if !bytes.Equal(got.Data, garbage) {
				t.Error("original bytes were not passed through")
			}
			if got.MimeType != tt.mime {
				t.Errorf("MimeType = %q, want original %q", got.MimeType, tt.mime)
			}
		})
	}
}

func TestNormalizeUnknownTypeUsesContent(t *testing.T) {
	p := newTestPipeline(DefaultOptions())

	var gifBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, fixtureImage(12, 12, false), nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		data      []byte
		mime      string
		filename  string
		wantErr   bool
		wantMime  string
		converted bool
	}{
		{name: "html named as png", data: []byte("<html><script>alert(1)</script></html>"), mime: "text/html", filename: "logo.png", wantErr: true},
		{name: "script", data: []byte("alert(document.cookie)"), mime: "application/javascript", filename: "a.js", wantErr: true},
		{name: "pdf", data: []byte("%PDF-1.7 definitely not an image"), mime: "application/pdf", filename: "doc.pdf", wantErr: true},
		{name: "empty mime", data: []byte("just some bytes"), wantErr: true},
		{name: "gif under a false type", data: gifBuf.Bytes(), mime: "text/html", filename: "x.gif", wantMime: "image/gif"},
		{name: "png under a false type", data: fixturePNG(t, 8, 8, false), mime: "text/plain", wantMime: "image/png"},
		{name: "jpeg under a false type", data: fixtureJPEG(t, 32, 32, 95, true), mime: "text/plain", filename: "a.txt", wantMime: "image/jpeg", converted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Normalize(tt.data, tt.mime, tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUndecodable) {
					t.Fatalf("err = %v, want ErrUndecodable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", got.MimeType, tt.wantMime)
			}
			if got.Converted != tt.converted {
				t.Errorf("Converted = %v, want %v", got.Converted, tt.converted)
			}
			if !tt.converted && !bytes.Equal(got.Data, tt.data) {
				t.Error("bytes changed on passthrough")
			}
		})
	}
}

func TestNormalizeDegradedCarriesCause(t *testing.T) {
	p := newTestPipeline(DefaultOptions())
	got, err := p.Normalize([]byte{0xff, 0xd8, 0xff, 0x00}, "image/jpeg", "cut.jpg")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !got.Degraded || got.Cause == nil {
		t.Errorf("Degraded = %v, Cause = %v", got.Degraded, got.Cause)
	}
	if got.Converted {
		t.Error("degraded result must not be marked converted")
	}
}

func TestNormalizePNG(t *testing.T) {
	small := fixturePNG(t, 32, 32, false)
	large := fixturePNG(t, 300, 300, true)

	p := newTestPipeline(Options{PNGThreshold: int64(len(small)) + 1})

	got, err := p.Normalize(small, "image/png", "logo.png")
	if err != nil {
		t.Fatalf("Normalize small: %v", err)
	}
	if got.MimeType != "image/png" || !bytes.Equal(got.Data, small) {
		t.Error("small PNG should pass through unchanged")
	}

	got, err = p.Normalize(large, "image/png", "shot.png")
	if err != nil {
		t.Fatalf("Normalize large: %v", err)
	}
	if got.MimeType != "image/jpeg" {
		t.Errorf("large PNG MimeType = %q, want image/jpeg", got.MimeType)
	}
	if ct := http.DetectContentType(got.Data); ct != "image/jpeg" {
		t.Errorf("large PNG output sniffed as %q", ct)
	}
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64)) // fully transparent
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	p := newTestPipeline(Options{PNGThreshold: 1})
	got, err := p.Normalize(buf.Bytes(), "image/png", "clear.png")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	out, err := jpeg.Decode(bytes.NewReader(got.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, _ := out.At(32, 32).RGBA()
	if r>>8 < 0xf0 || g>>8 < 0xf0 || b>>8 < 0xf0 {
		t.Errorf("transparent area became (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestNormalizeHEIC(t *testing.T) {
	t.Run("decodable becomes jpeg", func(t *testing.T) {
		p := New(DefaultOptions(), WithHEICDecoder(fakeHEIC(120, 80)))

		got, err := p.Normalize([]byte("ftypheic..."), "image/heic", "IMG_1234.HEIC")
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if got.MimeType != "image/jpeg" || got.Source != FormatHEIC || !got.Converted {
			t.Errorf("got MimeType=%q Source=%v Converted=%v", got.MimeType, got.Source, got.Converted)
		}
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(got.Data))
		if err != nil {
			t.Fatalf("output is not jpeg: %v", err)
		}
		if cfg.Width != 120 || cfg.Height != 80 {
			t.Errorf("output %dx%d, want 120x80", cfg.Width, cfg.Height)
		}
	})

	t.Run("extension only", func(t *testing.T) {
		p := New(DefaultOptions(), WithHEICDecoder(fakeHEIC(10, 10)))

		got, err := p.Normalize([]byte("x"), "application/octet-stream", "photo.heif")
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if got.MimeType != "image/jpeg" {
			t.Errorf("MimeType = %q", got.MimeType)
		}
	})

	t.Run("undecodable is fatal", func(t *testing.T) {
		p := newTestPipeline(DefaultOptions())
		heicBytes := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")

		got, err := p.Normalize(heicBytes, "image/heic", "broken.heic")
		if !errors.Is(err, ErrUndecodable) {
			t.Fatalf("err = %v, want ErrUndecodable", err)
		}
		if got.Data != nil || got.MimeType != "" {
			t.Error("fatal result must not carry the HEIC bytes")
		}
	})

	t.Run("decoder panic is fatal not a crash", func(t *testing.T) {
		p := New(DefaultOptions(), WithHEICDecoder(func(io.Reader) (image.Image, error) { panic("wasm trap") }))

		_, err := p.Normalize([]byte("x"), "image/heic", "a.heic")
		if !errors.Is(err, ErrUndecodable) {
			t.Fatalf("err = %v, want ErrUndecodable", err)
		}
	})

	t.Run("real decoder rejects garbage", func(t *testing.T) {
		p := New(DefaultOptions())
		_, err := p.Normalize([]byte("not heic at all"), "image/heic", "a.heic")
		if !errors.Is(err, ErrUndecodable) {
			t.Fatalf("err = %v, want ErrUndecodable", err)
		}
	})
}

func TestNormalizeJPEGLabelledHEICPayload(t *testing.T) {
	p := New(DefaultOptions(), WithHEICDecoder(fakeHEIC(40, 30)))

	// A HEIC container mislabelled as JPEG still ends up as a real JPEG
	got, err := p.Normalize([]byte("ftypheic payload"), "image/jpeg", "IMG.JPG")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Degraded {
		t.Fatalf("unexpected degraded result: %v", got.Cause)
	}
	if ct := http.DetectContentType(got.Data); ct != "image/jpeg" {
		t.Errorf("output sniffed as %q", ct)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	p := New(Options{})
	if p.Options() != DefaultOptions() {
		t.Errorf("Options() = %+v, want defaults", p.Options())
	}
}
