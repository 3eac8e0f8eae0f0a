package httpapi

import (
	"net/http"
	"time"
)

type endpointInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

type apiInfo struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Environment string         `json:"environment"`
	Uptime      float64        `json:"uptime"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	base := "/api/" + s.cfg.APIVersion
	info := apiInfo{
		Name:        "Foodable API",
		Version:     s.cfg.APIVersion,
		Environment: s.cfg.Environment,
		Uptime:      time.Since(s.started).Seconds(),
		Endpoints: []endpointInfo{
			{"GET", base + "/health"},
			{"GET", base + "/health/detailed"},
			{"POST", base + "/auth/register"},
			{"POST", base + "/auth/login"},
			{"POST", base + "/auth/refresh"},
			{"POST", base + "/auth/logout"},
			{"GET", base + "/auth/profile"},
			{"POST", base + "/auth/change-password"},
			{"GET", base + "/users"},
			{"GET", base + "/users/email"},
			{"GET", base + "/users/{id}"},
			{"PUT", base + "/users/profile"},
			{"DELETE", base + "/users/account"},
			{"GET", base + "/donations"},
			{"POST", base + "/donations"},
			{"GET", base + "/donations/my-donations"},
			{"POST", base + "/donations/image-upload-url"},
			{"GET", base + "/donations/{id}"},
			{"PUT", base + "/donations/{id}"},
			{"DELETE", base + "/donations/{id}"},
		},
	}
	respondOK(w, "Welcome to the Foodable API", info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "API is running", s.health.Basic())
}

func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	h := s.health.Detailed(r.Context())
	if h.Healthy() {
		respondOK(w, "All systems operational", h)
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, &Response{Success: false, Message: "System degraded", Data: h})
}
