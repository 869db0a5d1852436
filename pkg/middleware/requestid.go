package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a UUID (or adopts the client-provided
// X-Request-ID), stores it in the context, and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logger.WithRequestID(r.Context(), requestID)
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored in ctx by RequestID.
func GetRequestID(ctx context.Context) string {
	return logger.RequestIDFromContext(ctx)
}
