package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/services"
	"go.uber.org/zap"
)

type SimulationHandler struct {
	simulations *services.SimulationService
	logger      *zap.Logger
}

func NewSimulationHandler(simulations *services.SimulationService, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{simulations: simulations, logger: logger}
}

// createSimulationBody accepts the start date as YYYY-MM, YYYY-MM-DD or RFC3339.
type createSimulationBody struct {
	Name         string `json:"name"`
	StartDate    string `json:"start_date"`
	BaseCurrency string `json:"base_currency"`
}

func parseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperrors.Validation("start_date", "is required")
	}
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.Validation("start_date", "%q is not a date (use YYYY-MM-DD)", s)
}

// HandleCreate handles POST /api/simulations
// @Summary Create a simulation
// @Description Opens a simulation with a zero balance at the first day of the start month
// @Tags simulations
// @Accept json
// @Produce json
// @Param simulation body createSimulationBody true "Simulation"
// @Success 201 {object} models.Simulation
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Name already taken"
// @Router /simulations [post]
func (h *SimulationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createSimulationBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	start, err := parseStartDate(body.StartDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sim, err := h.simulations.Create(r.Context(), models.CreateSimulationRequest{
		Name:         body.Name,
		StartDate:    start,
		BaseCurrency: body.BaseCurrency,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sim)
}

// HandleList handles GET /api/simulations
// @Summary List simulations
// @Description Newest first
// @Tags simulations
// @Produce json
// @Param offset query int false "Offset"
// @Param limit query int false "Limit (default 50, max 500)"
// @Success 200 {array} models.Simulation
// @Failure 400 {object} ErrorResponse
// @Router /simulations [get]
func (h *SimulationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	sims, err := h.simulations.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sims == nil {
		sims = []models.Simulation{}
	}
	writeJSON(w, http.StatusOK, sims)
}

// HandleGet handles GET /api/simulations/{id}
// @Summary Get a simulation
// @Tags simulations
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.Simulation
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id} [get]
func (h *SimulationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sim, err := h.simulations.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// HandleDelete handles DELETE /api/simulations/{id}
// @Summary Delete a simulation
// @Description Removes the simulation with its holdings, history and snapshot
// @Tags simulations
// @Param id path string true "Simulation ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id} [delete]
func (h *SimulationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.simulations.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHistory handles GET /api/simulations/{id}/history
// @Summary Operation history
// @Description Every logged month, oldest first
// @Tags simulations
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.SimulationHistory
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id}/history [get]
func (h *SimulationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.simulations.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if history.Months == nil {
		history.Months = []models.HistoryMonth{}
	}
	writeJSON(w, http.StatusOK, history)
}
