package handler

import (
	"net/http/httptest"
	"testing"
)

func TestWriteImageContentType(t *testing.T) {
	tests := []struct {
		stored string
		want   string
	}{
		{stored: "image/jpeg", want: "image/jpeg"},
		{stored: "image/webp", want: "image/webp"},
		{stored: "text/html", want: "application/octet-stream"},
		{stored: "application/javascript", want: "application/octet-stream"},
		{stored: "", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeImage(rec, tt.stored, []byte("payload"))

			if ct := rec.Header().Get("Content-Type"); ct != tt.want {
				t.Errorf("Content-Type = %q, want %q", ct, tt.want)
			}
			if cc := rec.Header().Get("Cache-Control"); cc != imageCacheControl {
				t.Errorf("Cache-Control = %q", cc)
			}
		})
	}
}
