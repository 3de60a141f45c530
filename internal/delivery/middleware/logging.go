package middleware

import (
	"net/http"
	"time"

	"advertisement-service/pkg/logger"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func RequestLogger(loggers *logger.Loggers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				args := []any{
					"request_id", chimiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).String(),
				}
				if ww.Status() >= http.StatusInternalServerError {
					loggers.ErrorLogger.Error("request failed", args...)
					return
				}
				loggers.InfoLogger.Info("request handled", args...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
