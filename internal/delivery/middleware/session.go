package middleware

import (
	"net/http"

	"advertisement-service/pkg/database"
	"advertisement-service/pkg/logger"
	"advertisement-service/pkg/utils"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Session opens one transactional session per request and releases it when the
// handler returns or panics. Whatever the handler did not commit is rolled back.
func Session(store *database.Store, loggers *logger.Loggers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Begin(r.Context())
			if err != nil {
				loggers.ErrorLogger.Error("failed to open database session",
					"request_id", chimiddleware.GetReqID(r.Context()), utils.Err(err))
				utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
				return
			}

			defer func() {
				if err := sess.Close(); err != nil {
					loggers.ErrorLogger.Error("failed to close database session",
						"request_id", chimiddleware.GetReqID(r.Context()), utils.Err(err))
				}
			}()

			next.ServeHTTP(w, r.WithContext(database.WithSession(r.Context(), sess)))
		})
	}
}
