package middleware

import "net/http"

// multipartOverhead leaves room for form fields and part headers next to the file.
const multipartOverhead = 1 << 20

// MaxBodySize caps every request body so an oversize upload fails while it
// is being read, before any handler buffers it.
func MaxBodySize(maxUploadSize int64) func(http.Handler) http.Handler {
	limit := maxUploadSize + multipartOverhead
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
