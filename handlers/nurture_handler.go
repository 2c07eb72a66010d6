package handlers

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leadpulse-id/outreach-service/internal/service"
	"github.com/leadpulse-id/outreach-service/pkg/response"
	"github.com/leadpulse-id/outreach-service/pkg/validator"
)

type NurtureHandler struct {
	nurture  *service.NurtureService
	diagnose *service.DiagnoseService
}

func NewNurtureHandler(nurture *service.NurtureService, diagnose *service.DiagnoseService) *NurtureHandler {
	return &NurtureHandler{
		nurture:  nurture,
		diagnose: diagnose,
	}
}

type EnrollRequest struct {
	LeadID int64 `json:"leadId" validate:"required,gt=0"`
}

type QuickPreviewRequest struct {
	LeadID int64  `json:"leadId" validate:"required,gt=0"`
	Body   string `json:"body" validate:"required,max=4000"`
}

// RunTick godoc
// @Summary Run one nurture tick
// @Description Executes one bounded nurturing pass: resumes idle paused leads, then sends due sequence steps
// @Tags nurture
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for nurturing"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/nurture/tick [post]
func (h *NurtureHandler) RunTick(c echo.Context) error {
	result, err := h.nurture.RunTick(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"ok":        true,
		"processed": result.Processed,
		"sentCount": result.SentCount,
		"resumed":   result.Resumed,
		"paused":    result.Paused,
		"errors":    result.Errors,
	})
}

// DiagnoseLead godoc
// @Summary Diagnose nurturing for a lead
// @Description Re-evaluates every nurture gate for one lead without sending and reports failing checks with hints
// @Tags nurture
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for nurturing"
// @Param id path int true "Lead ID"
// @Param messages query int false "Include the last N messages (default: 0)"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/nurture/leads/{id}/diagnose [get]
func (h *NurtureHandler) DiagnoseLead(c echo.Context) error {
	leadID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	lastN := 0
	if raw := c.QueryParam("messages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.BadRequest(c, fmt.Errorf("messages must be a non-negative integer"))
		}
		lastN = n
	}

	diagnosis, err := h.diagnose.Diagnose(c.Request().Context(), leadID, lastN)
	if err != nil {
		return response.NotFound(c, err.Error())
	}

	return response.Ok(c, diagnosis)
}

// EnrollLead godoc
// @Summary Enroll a lead into nurturing
// @Description Picks the most specific active sequence plan for the lead and creates its engagement state
// @Tags nurture
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for nurturing"
// @Param request body EnrollRequest true "Lead to enroll"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/nurture/enroll [post]
func (h *NurtureHandler) EnrollLead(c echo.Context) error {
	var req EnrollRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	state, err := h.nurture.Enroll(c.Request().Context(), req.LeadID)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.Created(c, "Lead enrolled successfully", state)
}

// PauseLead godoc
// @Summary Pause nurturing for a lead
// @Description Operator override: marks the lead paused with reason manual
// @Tags nurture
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for nurturing"
// @Param id path int true "Lead ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/nurture/leads/{id}/pause [post]
func (h *NurtureHandler) PauseLead(c echo.Context) error {
	leadID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	if err := h.nurture.PauseManually(c.Request().Context(), leadID); err != nil {
		return response.BadRequest(c, err)
	}

	return response.OkWithMessage(c, "Nurturing paused", map[string]any{
		"leadId": leadID,
	})
}

// ResumeLead godoc
// @Summary Resume nurturing for a lead
// @Description Clears a pause so the next tick considers the lead again
// @Tags nurture
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for nurturing"
// @Param id path int true "Lead ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/nurture/leads/{id}/resume [post]
func (h *NurtureHandler) ResumeLead(c echo.Context) error {
	leadID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	if err := h.nurture.ResumeManually(c.Request().Context(), leadID); err != nil {
		return response.BadRequest(c, err)
	}

	return response.OkWithMessage(c, "Nurturing resumed", map[string]any{
		"leadId": leadID,
	})
}

// PreviewQuickMessage godoc
// @Summary Preview a quick message
// @Description Renders a single-brace quick-message body against one lead's data without sending
// @Tags nurture
// @Accept json
// @Produce json
// @Param x-lp-auth-key header string true "API key for nurturing"
// @Param request body QuickPreviewRequest true "Lead and template body"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/nurture/quick-messages/preview [post]
func (h *NurtureHandler) PreviewQuickMessage(c echo.Context) error {
	var req QuickPreviewRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	rendered, err := h.nurture.PreviewQuick(c.Request().Context(), req.LeadID, req.Body)
	if err != nil {
		return response.BadRequest(c, err)
	}

	return response.Ok(c, map[string]any{
		"leadId":   req.LeadID,
		"rendered": rendered,
	})
}

func parseIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid lead id")
	}
	return id, nil
}
