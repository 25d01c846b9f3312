package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/workoutlog/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// body in the same shape as the workout service results
const panicResponseBody = `{"success":false,"error":"Erro interno do servidor."}`

func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				routeName := "unknown"
				if route := mux.CurrentRoute(req); route != nil && route.GetName() != "" {
					routeName = route.GetName()
				}
				log.WithFields(log.Fields{
					"method": req.Method,
					"path":   req.URL.Path,
					"route":  routeName,
				}).Errorf("http: panic: %v\n%s", r, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(panicResponseBody))
			}()

			next.ServeHTTP(w, req)
		})
	}
}
