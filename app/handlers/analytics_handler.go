package handlers

import (
	"fmt"
	"log"

	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/gofiber/fiber/v3"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	Stats(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// AnalyticsHandler serves the aggregated scan reports of a code
type AnalyticsHandler struct {
	flow businessflow.AnalyticsFlow
}

func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) AnalyticsHandlerInterface {
	return &AnalyticsHandler{flow: flow}
}

// Stats returns scan counts grouped by version, variant, device and country
// @Summary Code Analytics Stats
// @Tags Analytics
// @Produce json
// @Param uid path string true "Code UID"
// @Success 200 {object} dto.APIResponse{data=dto.CodeStatsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/codes/{uid}/stats [get]
func (h *AnalyticsHandler) Stats(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.flow.GetStats(ctx, uid)
	if err != nil {
		log.Println("Stats lookup failed", err)
		return flowErrorResponse(c, err, "Stats lookup failed", "STATS_LOOKUP_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Stats retrieved successfully", result)
}

// Export downloads the raw scan records of a code as an Excel workbook
// @Summary Export Code Analytics
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param uid path string true "Code UID"
// @Success 200 {file} binary
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/codes/{uid}/analytics/export [get]
func (h *AnalyticsHandler) Export(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	data, err := h.flow.ExportXLSX(ctx, uid)
	if err != nil {
		log.Println("Analytics export failed", err)
		return flowErrorResponse(c, err, "Analytics export failed", "ANALYTICS_EXPORT_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="scans-%s.xlsx"`, uid))
	return c.Send(data)
}
