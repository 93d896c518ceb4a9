package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/simfolio/backend/internal/services"
	"go.uber.org/zap"
)

// TimelineHandler exposes month advancement and the undo checkpoint.
type TimelineHandler struct {
	time      *services.TimeService
	snapshots *services.SnapshotService
	logger    *zap.Logger
}

func NewTimelineHandler(time *services.TimeService, snapshots *services.SnapshotService, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{time: time, snapshots: snapshots, logger: logger}
}

// HandleCanAdvance handles GET /api/simulations/{id}/advance
// @Summary Check whether the simulation can advance
// @Tags time
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.AdvanceCheck
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id}/advance [get]
func (h *TimelineHandler) HandleCanAdvance(w http.ResponseWriter, r *http.Request) {
	check, err := h.time.CanAdvance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// HandleAdvance handles POST /api/simulations/{id}/advance
// @Summary Advance one month
// @Description Snapshots the simulation, moves it to the next month, pays dividends and revalues holdings
// @Tags time
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.AdvanceReport
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Advance blocked"
// @Failure 502 {object} ErrorResponse
// @Router /simulations/{id}/advance [post]
func (h *TimelineHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	report, err := h.time.Advance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleSnapshotInfo handles GET /api/simulations/{id}/snapshot
// @Summary Describe the undo checkpoint
// @Tags snapshot
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.SnapshotInfo
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id}/snapshot [get]
func (h *TimelineHandler) HandleSnapshotInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.snapshots.Info(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleCapture handles POST /api/simulations/{id}/snapshot
// @Summary Capture the undo checkpoint
// @Description Replaces any previous checkpoint with the current balance and holdings
// @Tags snapshot
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 201 {object} models.Snapshot
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id}/snapshot [post]
func (h *TimelineHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Capture(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleRestore handles POST /api/simulations/{id}/snapshot/restore
// @Summary Undo to the checkpoint
// @Description Restores date, balance and holdings and deletes history from the checkpoint month on
// @Tags snapshot
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.Simulation
// @Failure 404 {object} ErrorResponse "Simulation or snapshot not found"
// @Failure 409 {object} ErrorResponse "Snapshot is ahead of the simulation"
// @Router /simulations/{id}/snapshot/restore [post]
func (h *TimelineHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	sim, err := h.snapshots.Restore(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}
