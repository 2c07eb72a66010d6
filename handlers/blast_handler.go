package handlers

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leadpulse-id/outreach-service/internal/service"
	"github.com/leadpulse-id/outreach-service/pkg/response"
	"github.com/leadpulse-id/outreach-service/pkg/validator"
)

type BlastHandler struct {
	service *service.BlastService
}

func NewBlastHandler(service *service.BlastService) *BlastHandler {
	return &BlastHandler{service: service}
}

type CreateBlastRequest struct {
	Message   string  `json:"message" validate:"required,max=4000"`
	CreatedBy string  `json:"createdBy" validate:"required,max=100"`
	LeadIDs   []int64 `json:"leadIds" validate:"required,min=1,dive,gt=0"`
}

// CreateBlast godoc
// @Summary Submit a blast job
// @Description Creates a broadcast job with one item per recipient lead; the worker sends them one at a time
// @Tags blasts
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for blasts"
// @Param request body CreateBlastRequest true "Blast job to create"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/blasts [post]
func (h *BlastHandler) CreateBlast(c echo.Context) error {
	var req CreateBlastRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	job, err := h.service.SubmitJob(c.Request().Context(), req.Message, req.CreatedBy, req.LeadIDs)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.Created(c, "Blast job created successfully", job)
}

// ListBlasts godoc
// @Summary List blast jobs
// @Description Retrieves a paginated list of blast jobs, newest first
// @Tags blasts
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for blasts"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/blasts [get]
func (h *BlastHandler) ListBlasts(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	jobs, totalCount, err := h.service.ListJobs(c.Request().Context(), page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, jobs, page, pageSize, totalCount)
}

// GetBlast godoc
// @Summary Get a blast job
// @Description Returns one blast job with all of its per-recipient items
// @Tags blasts
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for blasts"
// @Param id path int true "Blast job ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/blasts/{id} [get]
func (h *BlastHandler) GetBlast(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(c, fmt.Errorf("invalid blast job id"))
	}

	job, items, err := h.service.GetJob(c.Request().Context(), id)
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if job == nil {
		return response.NotFound(c, fmt.Sprintf("blast job %d not found", id))
	}

	return response.Ok(c, map[string]any{
		"job":   job,
		"items": items,
	})
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	page := defaultPage
	if raw := c.QueryParam("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if raw := c.QueryParam("pageSize"); raw != "" {
		ps, err := strconv.Atoi(raw)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
		pageSize = ps
	}

	return page, pageSize, nil
}
