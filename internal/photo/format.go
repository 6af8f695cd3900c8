package photo

import (
	"mime"
	"path/filepath"
	"strings"
)

// Format is the closed set of image formats the pipeline distinguishes.
// Declared MIME strings are parsed into a Format once, at the boundary.
type Format int

const (
	FormatOther Format = iota
	FormatJPEG
	FormatPNG
	FormatHEIC
	FormatHEIF
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatHEIC:
		return "heic"
	case FormatHEIF:
		return "heif"
	default:
		return "other"
	}
}

// MimeType returns the canonical MIME type, or "" for FormatOther.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatHEIC:
		return "image/heic"
	case FormatHEIF:
		return "image/heif"
	default:
		return ""
	}
}

// IsHEIF reports whether the format needs transcoding before a browser can show it.
func (f Format) IsHEIF() bool {
	return f == FormatHEIC || f == FormatHEIF
}

var mimeFormats = map[string]Format{
	"image/jpeg":          FormatJPEG,
	"image/jpg":           FormatJPEG,
	"image/pjpeg":         FormatJPEG,
	"image/png":           FormatPNG,
	"image/x-png":         FormatPNG,
	"image/heic":          FormatHEIC,
	"image/heic-sequence": FormatHEIC,
	"image/heif":          FormatHEIF,
	"image/heif-sequence": FormatHEIF,
}

var extFormats = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".heic": FormatHEIC,
	".heif": FormatHEIF,
}

// genericMime holds declared types that say nothing about the payload.
var genericMime = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"binary/octet-stream":      true,
	"image/*":                  true,
}

// ParseFormat resolves the declared MIME type, falling back to the file
// extension when the MIME type is generic or absent. A HEIC/HEIF extension
// wins over any non-HEIF declaration: browsers and phones commonly send
// .heic files as application/octet-stream or even image/jpeg.
func ParseFormat(declaredMime, filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	byExt, extKnown := extFormats[ext]
	if extKnown && byExt.IsHEIF() {
		return byExt
	}

	mt := canonicalMime(declaredMime)
	if f, ok := mimeFormats[mt]; ok {
		return f
	}
	if genericMime[mt] && extKnown {
		return byExt
	}
	return FormatOther
}

func canonicalMime(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return mt
}
