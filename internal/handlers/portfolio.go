package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/services"
	"go.uber.org/zap"
)

// PortfolioHandler exposes the ledger, the trading engine and the holding
// ledger of a simulation.
type PortfolioHandler struct {
	ledger   *services.LedgerService
	trading  *services.TradingService
	holdings *services.HoldingService
	logger   *zap.Logger
}

func NewPortfolioHandler(ledger *services.LedgerService, trading *services.TradingService, holdings *services.HoldingService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{ledger: ledger, trading: trading, holdings: holdings, logger: logger}
}

// HandleBalance handles POST /api/simulations/{id}/balance
// @Summary Apply a balance operation
// @Description Credits or debits cash and logs the operation in the current month's history
// @Tags balance
// @Accept json
// @Produce json
// @Param id path string true "Simulation ID"
// @Param operation body models.BalanceOperation true "Operation"
// @Success 200 {object} models.Simulation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Insufficient funds"
// @Router /simulations/{id}/balance [post]
func (h *PortfolioHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	var op models.BalanceOperation
	if err := decodeJSON(r, &op); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sim, err := h.ledger.Apply(r.Context(), mux.Vars(r)["id"], op)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// HandlePurchase handles POST /api/simulations/{id}/purchase
// @Summary Buy an asset
// @Description Spends desired_amount of the simulation currency at the current month's close
// @Tags trading
// @Accept json
// @Produce json
// @Param id path string true "Simulation ID"
// @Param trade body models.TradeRequest true "Trade"
// @Success 200 {object} models.TradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Insufficient funds"
// @Failure 502 {object} ErrorResponse "Price or rate unavailable"
// @Router /simulations/{id}/purchase [post]
func (h *PortfolioHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.trading.Purchase)
}

// HandleSell handles POST /api/simulations/{id}/sell
// @Summary Sell an asset
// @Description Sells desired_amount worth of a holding at the current month's close
// @Tags trading
// @Accept json
// @Produce json
// @Param id path string true "Simulation ID"
// @Param trade body models.TradeRequest true "Trade"
// @Success 200 {object} models.TradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Insufficient position"
// @Failure 502 {object} ErrorResponse "Price or rate unavailable"
// @Router /simulations/{id}/sell [post]
func (h *PortfolioHandler) HandleSell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.trading.Sell)
}

func (h *PortfolioHandler) trade(w http.ResponseWriter, r *http.Request, exec func(context.Context, string, models.TradeRequest) (*models.TradeResult, error)) {
	var req models.TradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := exec(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleHoldings handles GET /api/simulations/{id}/holdings
// @Summary List holdings
// @Description Holdings as valued at the last trade or advance, ordered by ticker
// @Tags holdings
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {array} models.Holding
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id}/holdings [get]
func (h *PortfolioHandler) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.holdings.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	writeJSON(w, http.StatusOK, holdings)
}

// HandleRefresh handles POST /api/simulations/{id}/holdings/refresh
// @Summary Revalue holdings
// @Description Reprices every holding at the current month and recomputes weights
// @Tags holdings
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {array} models.Holding
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /simulations/{id}/holdings/refresh [post]
func (h *PortfolioHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.holdings.RecomputeAll(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	writeJSON(w, http.StatusOK, holdings)
}

// HandleSummary handles GET /api/simulations/{id}/summary
// @Summary Portfolio summary
// @Tags holdings
// @Produce json
// @Param id path string true "Simulation ID"
// @Success 200 {object} models.PortfolioSummary
// @Failure 404 {object} ErrorResponse
// @Router /simulations/{id}/summary [get]
func (h *PortfolioHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.holdings.Summary(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
