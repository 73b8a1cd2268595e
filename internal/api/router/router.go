package router

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"locdecoder/internal/api/handler"
	"locdecoder/internal/api/middleware"
	"locdecoder/internal/core/service"
)

func NewRouter(positionService service.PositionService, logger *zap.Logger) http.Handler {
	positionHandler := handler.NewPositionHandler(positionService, logger)
	logging := middleware.LoggingMiddleware(logger)

	mux := http.NewServeMux()

	withMiddleware := func(handler http.Handler) http.Handler {
		return middleware.CORSMiddleware(logging(handler))
	}

	// Health check endpoint
	mux.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}))

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/api/positions/raw", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		positionHandler.ProcessRawData(w, r)
	})))

	mux.Handle("/api/positions/list", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		positionHandler.GetPositions(w, r)
	})))

	mux.Handle("/api/positions/latest", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		positionHandler.GetLatestPosition(w, r)
	})))

	mux.Handle("/api/positions/latest/all", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		positionHandler.GetAllLatestPositions(w, r)
	})))

	return mux
}
