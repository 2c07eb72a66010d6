package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/leadpulse-id/outreach-service/internal/worker"
	"github.com/leadpulse-id/outreach-service/pkg/response"
	"github.com/leadpulse-id/outreach-service/pkg/validator"
)

type WorkerHandler struct {
	worker *worker.BlastWorker
	ctx    context.Context
}

type StartWorkerRequest struct {
	IntervalSeconds *int `json:"intervalSeconds,omitempty" validate:"omitempty,min=1"`
}

func NewWorkerHandler(blastWorker *worker.BlastWorker, ctx context.Context) *WorkerHandler {
	return &WorkerHandler{
		worker: blastWorker,
		ctx:    ctx,
	}
}

// StartWorker godoc
// @Summary Start the blast worker
// @Description Starts the single-consumer blast dispatch loop with an optional poll interval
// @Tags blast-worker
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for blasts"
// @Param request body StartWorkerRequest false "Worker parameters (optional)"
// @Success 200 {object} response.SuccessResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/blast-worker/start [post]
func (h *WorkerHandler) StartWorker(c echo.Context) error {
	if h.worker.IsRunning() {
		return response.OkWithMessage(c, "Blast worker is already running", h.worker.GetStatus())
	}

	var req StartWorkerRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	intervalSeconds := 0
	if req.IntervalSeconds != nil {
		intervalSeconds = *req.IntervalSeconds
	}

	if err := h.worker.StartWithInterval(h.ctx, intervalSeconds); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Blast worker started successfully", h.worker.GetStatus())
}

// StopWorker godoc
// @Summary Stop the blast worker
// @Description Stops the blast dispatch loop after its current iteration
// @Tags blast-worker
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for blasts"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/blast-worker/stop [post]
func (h *WorkerHandler) StopWorker(c echo.Context) error {
	if !h.worker.IsRunning() {
		return response.OkWithMessage(c, "Blast worker is already stopped", h.worker.GetStatus())
	}

	if err := h.worker.Stop(); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Blast worker stopped successfully", h.worker.GetStatus())
}

// GetWorkerStatus godoc
// @Summary Get blast worker status
// @Description Returns the current state and counters of the blast dispatch loop
// @Tags blast-worker
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for blasts"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/blast-worker/status [get]
func (h *WorkerHandler) GetWorkerStatus(c echo.Context) error {
	return response.Ok(c, h.worker.GetStatus())
}
