package handlers

import (
	"log"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ABTestHandlerInterface defines the contract for A/B test handlers
type ABTestHandlerInterface interface {
	Create(c fiber.Ctx) error
	Start(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Pause(c fiber.Ctx) error
	Complete(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// ABTestHandler handles A/B test lifecycle HTTP requests
type ABTestHandler struct {
	flow      businessflow.ABTestFlow
	validator *validator.Validate
}

func NewABTestHandler(flow businessflow.ABTestFlow) ABTestHandlerInterface {
	return &ABTestHandler{flow: flow, validator: validator.New()}
}

// Create registers a draft A/B test
// @Summary Create A/B Test
// @Tags ABTests
// @Accept json
// @Produce json
// @Param request body dto.CreateABTestRequest true "Test data"
// @Success 201 {object} dto.APIResponse{data=dto.ABTestResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tests [post]
func (h *ABTestHandler) Create(c fiber.Ctx) error {
	var req dto.CreateABTestRequest
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
		log.Println("Test creation failed", err)
		return flowErrorResponse(c, err, "Test creation failed", "TEST_CREATION_FAILED")
	}
	return successResponse(c, fiber.StatusCreated, "Test created successfully", result)
}

// Start transitions a draft test to running
// @Summary Start A/B Test
// @Tags ABTests
// @Produce json
// @Param uuid path string true "Test UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/tests/{uuid}/start [post]
func (h *ABTestHandler) Start(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Start(ctx, c.Params("uuid")); err != nil {
		log.Println("Test start failed", err)
		return flowErrorResponse(c, err, "Test start failed", "TEST_START_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Test started successfully", nil)
}

// Update patches a test's name or, when not running, its traffic split
// @Summary Update A/B Test
// @Tags ABTests
// @Accept json
// @Produce json
// @Param uuid path string true "Test UUID"
// @Param request body dto.UpdateABTestRequest true "Test update data"
// @Success 200 {object} dto.APIResponse{data=dto.ABTestResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/tests/{uuid} [put]
func (h *ABTestHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateABTestRequest
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
		log.Println("Test update failed", err)
		return flowErrorResponse(c, err, "Test update failed", "TEST_UPDATE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Test updated successfully", result)
}

// Pause suspends traffic splitting without discarding the test
// @Summary Pause A/B Test
// @Tags ABTests
// @Produce json
// @Param uuid path string true "Test UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tests/{uuid}/pause [post]
func (h *ABTestHandler) Pause(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Pause(ctx, c.Params("uuid")); err != nil {
		log.Println("Test pause failed", err)
		return flowErrorResponse(c, err, "Test pause failed", "TEST_PAUSE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Test paused successfully", nil)
}

// Complete finishes a test, optionally recording the winner
// @Summary Complete A/B Test
// @Tags ABTests
// @Accept json
// @Produce json
// @Param uuid path string true "Test UUID"
// @Param request body dto.CompleteABTestRequest false "Completion data"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tests/{uuid}/complete [post]
func (h *ABTestHandler) Complete(c fiber.Ctx) error {
	var req dto.CompleteABTestRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if err := h.validator.Struct(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Complete(ctx, c.Params("uuid"), &req); err != nil {
		log.Println("Test completion failed", err)
		return flowErrorResponse(c, err, "Test completion failed", "TEST_COMPLETE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Test completed successfully", nil)
}

// Delete removes a test unless it is running
// @Summary Delete A/B Test
// @Tags ABTests
// @Produce json
// @Param uuid path string true "Test UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/tests/{uuid} [delete]
func (h *ABTestHandler) Delete(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Delete(ctx, c.Params("uuid")); err != nil {
		log.Println("Test deletion failed", err)
		return flowErrorResponse(c, err, "Test deletion failed", "TEST_DELETE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Test deleted successfully", nil)
}
