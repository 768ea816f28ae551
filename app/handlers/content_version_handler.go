package handlers

import (
	"log"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ContentVersionHandlerInterface defines the contract for version handlers
type ContentVersionHandlerInterface interface {
	Create(c fiber.Ctx) error
	Activate(c fiber.Ctx) error
	Deactivate(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	GetActive(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// ContentVersionHandler handles content version HTTP requests
type ContentVersionHandler struct {
	flow      businessflow.ContentVersionFlow
	validator *validator.Validate
}

func NewContentVersionHandler(flow businessflow.ContentVersionFlow) ContentVersionHandlerInterface {
	return &ContentVersionHandler{flow: flow, validator: validator.New()}
}

// Create adds a new content version to a code
// @Summary Create Content Version
// @Tags ContentVersions
// @Accept json
// @Produce json
// @Param request body dto.CreateContentVersionRequest true "Version data"
// @Success 201 {object} dto.APIResponse{data=dto.ContentVersionResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/versions [post]
func (h *ContentVersionHandler) Create(c fiber.Ctx) error {
	var req dto.CreateContentVersionRequest
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
		log.Println("Version creation failed", err)
		return flowErrorResponse(c, err, "Version creation failed", "VERSION_CREATION_FAILED")
	}
	return successResponse(c, fiber.StatusCreated, "Version created successfully", result)
}

// Activate makes a version the single active one of its code
// @Summary Activate Content Version
// @Tags ContentVersions
// @Produce json
// @Param uuid path string true "Version UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/versions/{uuid}/activate [post]
func (h *ContentVersionHandler) Activate(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Activate(ctx, c.Params("uuid")); err != nil {
		log.Println("Version activation failed", err)
		return flowErrorResponse(c, err, "Version activation failed", "VERSION_ACTIVATION_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Version activated successfully", nil)
}

// Deactivate clears a version's active flag
// @Summary Deactivate Content Version
// @Tags ContentVersions
// @Produce json
// @Param uuid path string true "Version UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/versions/{uuid}/deactivate [post]
func (h *ContentVersionHandler) Deactivate(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Deactivate(ctx, c.Params("uuid")); err != nil {
		log.Println("Version deactivation failed", err)
		return flowErrorResponse(c, err, "Version deactivation failed", "VERSION_DEACTIVATION_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Version deactivated successfully", nil)
}

// Delete removes a version unless a running test references it
// @Summary Delete Content Version
// @Tags ContentVersions
// @Produce json
// @Param uuid path string true "Version UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/versions/{uuid} [delete]
func (h *ContentVersionHandler) Delete(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Delete(ctx, c.Params("uuid")); err != nil {
		log.Println("Version deletion failed", err)
		return flowErrorResponse(c, err, "Version deletion failed", "VERSION_DELETE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Version deleted successfully", nil)
}

// GetActive returns the single active version of a code
// @Summary Get Active Version
// @Tags ContentVersions
// @Produce json
// @Param uid path string true "Code UID"
// @Success 200 {object} dto.APIResponse{data=dto.ContentVersionResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/codes/{uid}/versions/active [get]
func (h *ContentVersionHandler) GetActive(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	version, err := h.flow.GetActive(ctx, uid)
	if err != nil {
		return flowErrorResponse(c, err, "Active version lookup failed", "ACTIVE_VERSION_LOOKUP_FAILED")
	}
	if version == nil {
		return errorResponse(c, fiber.StatusNotFound, "No active content version found", "NO_ACTIVE_CONTENT", nil)
	}
	return successResponse(c, fiber.StatusOK, "Active version retrieved successfully", version)
}

// List returns every version of a code
// @Summary List Content Versions
// @Tags ContentVersions
// @Produce json
// @Param uid path string true "Code UID"
// @Success 200 {object} dto.APIResponse{data=dto.ListContentVersionsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/codes/{uid}/versions [get]
func (h *ContentVersionHandler) List(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Code UID is required", "MISSING_CODE_UID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.flow.List(ctx, uid)
	if err != nil {
		return flowErrorResponse(c, err, "Version listing failed", "VERSION_LIST_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Versions retrieved successfully", result)
}
