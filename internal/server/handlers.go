package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yourusername/acca-engine/internal/builder"
	"github.com/yourusername/acca-engine/internal/metrics"
	"github.com/yourusername/acca-engine/internal/models"
)

// envelope is the JSON response wrapper shared by every API endpoint
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, data interface{}, count int) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// handleFetchOdds fetches fresh odds from the market-data source and stores
// the snapshot.
func (s *Server) handleFetchOdds(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")
	if sport == "" {
		sport = s.cfg.OddsAPI.DefaultSport
	}

	selections, err := s.oddsClient.FetchOdds(r.Context(), sport)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch odds")
		writeError(w, http.StatusBadGateway, "failed to fetch odds")
		return
	}

	if err := s.store.SaveSelections(selections); err != nil {
		s.logger.WithError(err).Error("Failed to store odds")
		writeError(w, http.StatusInternalServerError, "failed to store odds")
		return
	}

	writeData(w, selections, len(selections))
}

// handleStoredOdds returns the stored odds snapshot without refetching
func (s *Server) handleStoredOdds(w http.ResponseWriter, r *http.Request) {
	selections := s.store.GetSelections()
	writeData(w, selections, len(selections))
}

// handleSports returns the provider's available sport keys
func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	sports, err := s.oddsClient.AvailableSports(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch sports")
		writeError(w, http.StatusBadGateway, "failed to fetch sports")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: sports})
}

// handleProbabilityBreakdown returns the diagnostic probability view for one
// stored selection.
func (s *Server) handleProbabilityBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid selection id")
		return
	}

	sel, err := s.store.GetSelectionByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "selection not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.model.ProbabilityBreakdown(&sel)})
}

// handleBuildAccumulators builds ranked accumulators from the stored odds
// snapshot and persists the result set.
func (s *Server) handleBuildAccumulators(w http.ResponseWriter, r *http.Request) {
	opts, err := s.buildOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	selections := s.store.GetSelections()
	if len(selections) == 0 {
		count := 0
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Data:    []*models.Accumulator{},
			Count:   &count,
			Message: "No odds available. Please fetch odds first.",
		})
		return
	}

	accumulators := s.builder.Build(selections, opts)

	if err := s.store.SaveAccumulators(accumulators); err != nil {
		s.logger.WithError(err).Error("Failed to store accumulators")
		writeError(w, http.StatusInternalServerError, "failed to store accumulators")
		return
	}

	writeData(w, accumulators, len(accumulators))
}

// buildOptions parses and validates the size-bound query parameters. The
// builder trusts these, so bad input must be rejected here.
func (s *Server) buildOptions(r *http.Request) (builder.Options, error) {
	opts := builder.Options{
		MinSelections:        s.cfg.Builder.MinSelections,
		MaxSelections:        s.cfg.Builder.MaxSelections,
		ProbabilityThreshold: s.cfg.Builder.ProbabilityThreshold,
		PriceRangeLow:        s.cfg.Builder.OddsRangeLow,
		PriceRangeHigh:       s.cfg.Builder.OddsRangeHigh,
	}

	if raw := r.URL.Query().Get("minSelections"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 {
			return opts, errors.New("minSelections must be an integer >= 2")
		}
		opts.MinSelections = v
	}
	if raw := r.URL.Query().Get("maxSelections"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 {
			return opts, errors.New("maxSelections must be an integer >= 2")
		}
		opts.MaxSelections = v
	}
	if opts.MinSelections > opts.MaxSelections {
		return opts, errors.New("minSelections must not exceed maxSelections")
	}

	return opts, nil
}

// calculateRequest is the payload for custom accumulator evaluation
type calculateRequest struct {
	SelectionIDs []string `json:"selection_ids" validate:"required,min=1"`
}

// handleCalculateCustom prices and scores a caller-specified combination
func (s *Server) handleCalculateCustom(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "selection_ids must be a non-empty array")
		return
	}

	accumulator, err := s.builder.BuildCustom(req.SelectionIDs, s.store.GetSelections())
	if err != nil {
		if errors.Is(err, models.ErrTooFewSelections) || errors.Is(err, models.ErrDuplicateEvent) {
			writeError(w, http.StatusBadRequest, "invalid accumulator combination")
			return
		}
		s.logger.WithError(err).Error("Failed to calculate custom accumulator")
		writeError(w, http.StatusInternalServerError, "failed to calculate accumulator")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: accumulator})
}

// handleStoredAccumulators returns the persisted accumulator result set
func (s *Server) handleStoredAccumulators(w http.ResponseWriter, r *http.Request) {
	accumulators := s.store.GetAccumulators()
	writeData(w, accumulators, len(accumulators))
}

// handleGetStats returns the stored historical stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.store.GetTeamStats()
	writeData(w, stats, len(stats))
}

// statRequest is the payload for historical stat upserts
type statRequest struct {
	Team       string             `json:"team" validate:"required"`
	Sport      string             `json:"sport" validate:"required"`
	WinRate    *float64           `json:"win_rate" validate:"required,gte=0,lte=100"`
	RecentForm string             `json:"recent_form" validate:"omitempty,form"`
	HeadToHead map[string]float64 `json:"head_to_head"`
}

// handleUpsertStat inserts or replaces one team's historical record and
// reloads the probability model snapshot from the full stats list.
func (s *Server) handleUpsertStat(w http.ResponseWriter, r *http.Request) {
	var req statRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stat := &models.TeamStats{
		Team:       req.Team,
		Sport:      req.Sport,
		WinRate:    *req.WinRate,
		RecentForm: req.RecentForm,
		HeadToHead: req.HeadToHead,
		UpdatedAt:  time.Now().UTC(),
	}

	allStats, err := s.store.UpsertTeamStat(stat)
	if err != nil {
		s.logger.WithError(err).Error("Failed to store team stat")
		writeError(w, http.StatusInternalServerError, "failed to store stat")
		return
	}

	s.model.LoadHistoricalStats(allStats)
	metrics.HistoricalTeams.Set(float64(s.model.StatsCount()))

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: stat})
}
