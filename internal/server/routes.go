package server

import (
	"net/http"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Chart
	mux.HandleFunc("/api/v1/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/dummy/summary", s.handleDummySummary)
	mux.HandleFunc("/api/v1/indice", s.handleIndices)
	mux.HandleFunc("/api/v1/tip", s.handleTip)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.CurrentBuild())
}

// indicesResponse preserves the order the indices were requested in.
type indicesResponse struct {
	MarketIndices []models.MarketIndexSnapshot `json:"market_indices"`
}

type tipResponse struct {
	TodayTip string `json:"today_tip"`
}
