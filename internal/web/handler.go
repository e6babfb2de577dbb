// Package web assembles the plain HTTP surface around the realtime
// endpoint: health check and static assets. None of it carries
// authorization logic.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// AsHandler routes /health-check and /realtime, and falls back to
// static files below publicDir for everything else.
func AsHandler(realtime http.Handler, publicDir string) http.Handler {
	router := httprouter.New()
	router.Handler("GET", "/health-check", healthCheck(time.Now()))
	router.Handler("GET", "/realtime", realtime)

	// delegate to the static file server if not found
	router.NotFound = http.FileServer(http.Dir(publicDir))

	return router
}

func healthCheck(started time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"uptime": time.Since(started).Seconds(),
		})
	})
}
