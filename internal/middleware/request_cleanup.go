package middleware

import (
	"io"
	"net/http"
)

// DrainAndCloseRequest caps the request body at maxBodyBytes (no cap when <= 0)
// and drains and closes whatever the handler left unread.
func DrainAndCloseRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := r.Body
			if body != nil && maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)

			if body != nil {
				_, _ = io.Copy(io.Discard, body)
				_ = body.Close()
			}
		})
	}
}
