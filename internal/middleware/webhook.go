package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

type rawBodyKey struct{}

// RawBody returns the request body buffered by BufferBody, or nil.
func RawBody(ctx context.Context) []byte {
	b, _ := ctx.Value(rawBodyKey{}).([]byte)
	return b
}

// BufferBody returns middleware that reads the whole webhook body before the
// handler runs, so signatures are checked against the exact bytes received.
// Bodies over limit are answered with 413. The buffered bytes are stored in
// the context and the request body is replaced with a fresh reader.
func BufferBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, `{"error":"request body too large"}`, http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := context.WithValue(r.Context(), rawBodyKey{}, body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
