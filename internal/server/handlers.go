package server

import (
	"net/http"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/models"
)

// handleSummary handles GET /api/v1/summary for the authenticated user.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := common.ResolveUserID(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	summary, err := s.app.Chart.ComputeSummary(r.Context(), userID)
	if err != nil {
		s.logServiceError(r, err, "Summary failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// handleDummySummary handles GET /api/v1/dummy/summary.
func (s *Server) handleDummySummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := s.app.Chart.ComputeDummySummary(r.Context())
	if err != nil {
		s.logServiceError(r, err, "Dummy summary failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// handleIndices handles GET /api/v1/indice?market_indices=KOSPI&market_indices=NASDAQ.
func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	names := QueryList(r, "market_indices")
	if len(names) == 0 {
		WriteError(w, http.StatusBadRequest, "market_indices is required")
		return
	}

	snapshots, err := s.app.Chart.GetIndices(r.Context(), names)
	if err != nil {
		s.logServiceError(r, err, "Market indices failed")
		WriteServiceError(w, err)
		return
	}

	resp := indicesResponse{MarketIndices: make([]models.MarketIndexSnapshot, 0, len(snapshots))}
	seen := make(map[models.MarketIndex]bool, len(names))
	for _, name := range names {
		index, _ := models.ParseMarketIndex(name)
		snapshot, ok := snapshots[index]
		if !ok || seen[index] {
			continue
		}
		seen[index] = true
		resp.MarketIndices = append(resp.MarketIndices, snapshot)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handleTip handles GET /api/v1/tip.
func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tip, err := s.app.Chart.GetTodayTip(r.Context())
	if err != nil {
		s.logServiceError(r, err, "Today's tip failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tipResponse{TodayTip: tip})
}

// logServiceError logs unexpected failures at error level and client-caused
// ones at debug level.
func (s *Server) logServiceError(r *http.Request, err error, msg string) {
	if isClientError(err) {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg(msg)
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
}
