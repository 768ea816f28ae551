package handlers

import (
	"log"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// QRCodeHandlerInterface defines the contract for code management handlers
type QRCodeHandlerInterface interface {
	Create(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// QRCodeHandler handles code registration HTTP requests
type QRCodeHandler struct {
	flow      businessflow.QRCodeFlow
	validator *validator.Validate
}

func NewQRCodeHandler(flow businessflow.QRCodeFlow) QRCodeHandlerInterface {
	return &QRCodeHandler{flow: flow, validator: validator.New()}
}

// Create registers a new code
// @Summary Create Code
// @Tags Codes
// @Accept json
// @Produce json
// @Param request body dto.CreateQRCodeRequest true "Code data"
// @Success 201 {object} dto.APIResponse{data=dto.QRCodeResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/codes [post]
func (h *QRCodeHandler) Create(c fiber.Ctx) error {
	var req dto.CreateQRCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.flow.Create(ctx, &req)
	if err != nil {
		log.Println("Code creation failed", err)
		return flowErrorResponse(c, err, "Code creation failed", "CODE_CREATION_FAILED")
	}
	return successResponse(c, fiber.StatusCreated, "Code created successfully", result)
}

// Get returns a code by UID
// @Summary Get Code
// @Tags Codes
// @Produce json
// @Param uid path string true "Code UID"
// @Success 200 {object} dto.APIResponse{data=dto.QRCodeResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/codes/{uid} [get]
func (h *QRCodeHandler) Get(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.flow.Get(ctx, uid)
	if err != nil {
		return flowErrorResponse(c, err, "Code lookup failed", "CODE_LOOKUP_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Code retrieved successfully", result)
}

// Delete removes a code and everything attached to it
// @Summary Delete Code
// @Tags Codes
// @Produce json
// @Param uid path string true "Code UID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/codes/{uid} [delete]
func (h *QRCodeHandler) Delete(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Delete(ctx, uid); err != nil {
		log.Println("Code deletion failed", err)
		return flowErrorResponse(c, err, "Code deletion failed", "CODE_DELETE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Code deleted successfully", nil)
}
