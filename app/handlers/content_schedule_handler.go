package handlers

import (
	"log"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ContentScheduleHandlerInterface defines the contract for schedule handlers
type ContentScheduleHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// ContentScheduleHandler handles content schedule HTTP requests
type ContentScheduleHandler struct {
	flow      businessflow.ContentScheduleFlow
	validator *validator.Validate
}

func NewContentScheduleHandler(flow businessflow.ContentScheduleFlow) ContentScheduleHandlerInterface {
	return &ContentScheduleHandler{flow: flow, validator: validator.New()}
}

// Create registers a content schedule
// @Summary Create Content Schedule
// @Tags ContentSchedules
// @Accept json
// @Produce json
// @Param request body dto.CreateContentScheduleRequest true "Schedule data"
// @Success 201 {object} dto.APIResponse{data=dto.ContentScheduleResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/schedules [post]
func (h *ContentScheduleHandler) Create(c fiber.Ctx) error {
	var req dto.CreateContentScheduleRequest
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
		log.Println("Schedule creation failed", err)
		return flowErrorResponse(c, err, "Schedule creation failed", "SCHEDULE_CREATION_FAILED")
	}
	return successResponse(c, fiber.StatusCreated, "Schedule created successfully", result)
}

// Update patches a schedule
// @Summary Update Content Schedule
// @Tags ContentSchedules
// @Accept json
// @Produce json
// @Param uuid path string true "Schedule UUID"
// @Param request body dto.UpdateContentScheduleRequest true "Schedule update data"
// @Success 200 {object} dto.APIResponse{data=dto.ContentScheduleResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/schedules/{uuid} [put]
func (h *ContentScheduleHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateContentScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.flow.Update(ctx, c.Params("uuid"), &req)
	if err != nil {
		log.Println("Schedule update failed", err)
		return flowErrorResponse(c, err, "Schedule update failed", "SCHEDULE_UPDATE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Schedule updated successfully", result)
}

// Delete removes a schedule
// @Summary Delete Content Schedule
// @Tags ContentSchedules
// @Produce json
// @Param uuid path string true "Schedule UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/schedules/{uuid} [delete]
func (h *ContentScheduleHandler) Delete(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Delete(ctx, c.Params("uuid")); err != nil {
		log.Println("Schedule deletion failed", err)
		return flowErrorResponse(c, err, "Schedule deletion failed", "SCHEDULE_DELETE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Schedule deleted successfully", nil)
}
