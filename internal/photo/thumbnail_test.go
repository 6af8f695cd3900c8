package photo

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestMakeThumbnailSquare(t *testing.T) {
	p := newTestPipeline(Options{ThumbnailSize: 200})
	src := fixtureJPEG(t, 1200, 800, 90, true)

	out, mimeType := p.MakeThumbnail(src, StyleSquare)
	if out == nil {
		t.Fatal("MakeThumbnail returned nil")
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mime = %q", mimeType)
	}
	if limit := 200 * 200 * 4; len(out) > limit {
		t.Errorf("thumbnail is %d bytes, larger than a raw %d byte bitmap", len(out), limit)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 200 {
		t.Errorf("thumbnail %dx%d, want 200x200", cfg.Width, cfg.Height)
	}
}

func TestMakeThumbnailCircleMask(t *testing.T) {
	const n = 64
	p := newTestPipeline(Options{ThumbnailSize: n})

	for _, src := range map[string][]byte{
		"landscape jpeg": fixtureJPEG(t, 300, 120, 90, false),
		"portrait png":   fixturePNG(t, 90, 240, false),
	} {
		out, mimeType := p.MakeThumbnail(src, StyleCircle)
		if out == nil {
			t.Fatal("MakeThumbnail returned nil")
		}
		if mimeType != "image/png" {
			t.Errorf("mime = %q", mimeType)
		}
		if len(out) > n*n*4 {
			t.Errorf("thumbnail is %d bytes, larger than a raw bitmap", len(out))
		}

		img, err := png.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("decode thumbnail: %v", err)
		}
		if b := img.Bounds(); b.Dx() != n || b.Dy() != n {
			t.Fatalf("thumbnail %dx%d, want %dx%d", b.Dx(), b.Dy(), n, n)
		}

		for _, pt := range []image.Point{{0, 0}, {n - 1, 0}, {0, n - 1}, {n - 1, n - 1}} {
			if _, _, _, a := img.At(pt.X, pt.Y).RGBA(); a != 0 {
				t.Errorf("corner %v alpha = %d, want 0", pt, a)
			}
		}
		if _, _, _, a := img.At(n/2, n/2).RGBA(); a == 0 {
			t.Error("center pixel is transparent")
		}
	}
}

func TestMakeThumbnailFailureReturnsNil(t *testing.T) {
	p := newTestPipeline(DefaultOptions())

	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("no pixels here"),
	} {
		t.Run(name, func(t *testing.T) {
			out, mimeType := p.MakeThumbnail(data, StyleCircle)
			if out != nil || mimeType != "" {
				t.Errorf("got %d bytes %q, want nil", len(out), mimeType)
			}
		})
	}
}

func TestMakeThumbnailIsPure(t *testing.T) {
	p := newTestPipeline(Options{ThumbnailSize: 32})
	src := fixtureJPEG(t, 100, 100, 90, false)
	before := append([]byte(nil), src...)

	a, _ := p.MakeThumbnail(src, StyleSquare)
	b, _ := p.MakeThumbnail(src, StyleSquare)

	if !bytes.Equal(src, before) {
		t.Error("input buffer was modified")
	}
	if !bytes.Equal(a, b) {
		t.Error("same input produced different thumbnails")
	}
}

func TestMakeThumbnailCropsCenter(t *testing.T) {
	const n = 20
	p := newTestPipeline(Options{ThumbnailSize: n})

	// wide image: left third red, middle third green, right third blue
	img := image.NewNRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			switch {
			case x < 100:
				img.Pix[img.PixOffset(x, y)] = 0xff
			case x < 200:
				img.Pix[img.PixOffset(x, y)+1] = 0xff
			default:
				img.Pix[img.PixOffset(x, y)+2] = 0xff
			}
			img.Pix[img.PixOffset(x, y)+3] = 0xff
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	out, _ := p.MakeThumbnail(buf.Bytes(), StyleCircle)
	thumb, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := thumb.At(n/2, n/2).RGBA()
	if g < r || g < b {
		t.Errorf("center pixel (%d,%d,%d) is not from the middle of the source", r>>8, g>>8, b>>8)
	}
}
