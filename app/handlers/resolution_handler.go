package handlers

import (
	"errors"
	"log"

	"github.com/amirphl/Yata-no-Kagami/app/services"
	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/gofiber/fiber/v3"
)

// ResolutionHandlerInterface defines the contract for the public scan endpoint
type ResolutionHandlerInterface interface {
	Resolve(c fiber.Ctx) error
}

// ResolutionHandler serves the scan-time redirect
type ResolutionHandler struct {
	flow businessflow.ResolutionFlow
}

func NewResolutionHandler(flow businessflow.ResolutionFlow) ResolutionHandlerInterface {
	return &ResolutionHandler{flow: flow}
}

// Resolve walks the cascade for a code and 302-redirects the visitor
// @Summary Resolve Code
// @Tags Resolution
// @Produce json
// @Param uid path string true "Code UID"
// @Success 302 {string} string "Redirect"
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /r/{uid} [get]
func (h *ResolutionHandler) Resolve(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	rctx := h.visitorContext(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.flow.Resolve(ctx, uid, rctx)
	if err != nil {
		var nfe *businessflow.NotFoundError
		if errors.As(err, &nfe) || businessflow.IsNoActiveContent(err) {
			return errorResponse(c, fiber.StatusNotFound, "Not found", "NOT_FOUND", nil)
		}
		var ve *businessflow.ValidationError
		if errors.As(err, &ve) {
			return errorResponse(c, fiber.StatusBadRequest, ve.Message, ve.Code, nil)
		}
		log.Println("Resolution failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Resolution failed", "RESOLUTION_FAILED", nil)
	}

	c.Redirect().Status(fiber.StatusFound).To(result.RedirectURL)
	return nil
}

// visitorContext assembles everything the cascade may match on. Geo fields
// come from edge headers when a CDN fills them in; the session ID from a
// header or cookie.
func (h *ResolutionHandler) visitorContext(c fiber.Ctx) *businessflow.ResolutionContext {
	sessionID := c.Get("X-Session-ID")
	if sessionID == "" {
		sessionID = c.Cookies("session_id")
	}
	return &businessflow.ResolutionContext{
		UserAgent: c.Get("User-Agent"),
		IPAddress: services.ClientIP(c.IP(), c.Get("X-Forwarded-For"), c.Get("X-Real-IP")),
		Referrer:  c.Get("Referer"),
		SessionID: sessionID,
		Country:   c.Get("CF-IPCountry"),
		Region:    c.Get("X-Geo-Region"),
		City:      c.Get("X-Geo-City"),
		Timestamp: utils.UTCNow(),
	}
}
