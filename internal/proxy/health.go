package proxy

import "net/http"

type healthStatus struct {
	Status string `json:"status"`
}

// livenessHandler always reports the process as alive.
func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		writeJSON(r.Context(), w, healthStatus{Status: "ok"}, http.StatusOK)
	}
}

// readinessHandler returns 200 once the application serves traffic and 503 otherwise.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if checker.IsReady() {
			writeJSON(r.Context(), w, healthStatus{Status: "ready"}, http.StatusOK)
			return
		}
		writeJSON(r.Context(), w, healthStatus{Status: "starting"}, http.StatusServiceUnavailable)
	}
}
