package handlers

import (
	"log"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	businessflow "github.com/amirphl/Yata-no-Kagami/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RedirectRuleHandlerInterface defines the contract for redirect rule handlers
type RedirectRuleHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Enable(c fiber.Ctx) error
	Disable(c fiber.Ctx) error
}

// RedirectRuleHandler handles redirect rule HTTP requests
type RedirectRuleHandler struct {
	flow      businessflow.RedirectRuleFlow
	validator *validator.Validate
}

func NewRedirectRuleHandler(flow businessflow.RedirectRuleFlow) RedirectRuleHandlerInterface {
	return &RedirectRuleHandler{flow: flow, validator: validator.New()}
}

// Create registers a redirect rule with typed conditions
// @Summary Create Redirect Rule
// @Tags RedirectRules
// @Accept json
// @Produce json
// @Param request body dto.CreateRedirectRuleRequest true "Rule data"
// @Success 201 {object} dto.APIResponse{data=dto.RedirectRuleResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/rules [post]
func (h *RedirectRuleHandler) Create(c fiber.Ctx) error {
	var req dto.CreateRedirectRuleRequest
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
		log.Println("Rule creation failed", err)
		return flowErrorResponse(c, err, "Rule creation failed", "RULE_CREATION_FAILED")
	}
	return successResponse(c, fiber.StatusCreated, "Rule created successfully", result)
}

// Update patches a rule; new conditions are re-validated against the rule type
// @Summary Update Redirect Rule
// @Tags RedirectRules
// @Accept json
// @Produce json
// @Param uuid path string true "Rule UUID"
// @Param request body dto.UpdateRedirectRuleRequest true "Rule update data"
// @Success 200 {object} dto.APIResponse{data=dto.RedirectRuleResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/rules/{uuid} [put]
func (h *RedirectRuleHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateRedirectRuleRequest
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
		log.Println("Rule update failed", err)
		return flowErrorResponse(c, err, "Rule update failed", "RULE_UPDATE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Rule updated successfully", result)
}

// Delete removes a rule
// @Summary Delete Redirect Rule
// @Tags RedirectRules
// @Produce json
// @Param uuid path string true "Rule UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/rules/{uuid} [delete]
func (h *RedirectRuleHandler) Delete(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Delete(ctx, c.Params("uuid")); err != nil {
		log.Println("Rule deletion failed", err)
		return flowErrorResponse(c, err, "Rule deletion failed", "RULE_DELETE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, "Rule deleted successfully", nil)
}

// Enable switches a rule on without touching its conditions
// @Summary Enable Redirect Rule
// @Tags RedirectRules
// @Produce json
// @Param uuid path string true "Rule UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/rules/{uuid}/enable [post]
func (h *RedirectRuleHandler) Enable(c fiber.Ctx) error {
	return h.toggle(c, true, "Rule enabled successfully")
}

// Disable switches a rule off without touching its conditions
// @Summary Disable Redirect Rule
// @Tags RedirectRules
// @Produce json
// @Param uuid path string true "Rule UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/rules/{uuid}/disable [post]
func (h *RedirectRuleHandler) Disable(c fiber.Ctx) error {
	return h.toggle(c, false, "Rule disabled successfully")
}

func (h *RedirectRuleHandler) toggle(c fiber.Ctx, enabled bool, message string) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.flow.Toggle(ctx, c.Params("uuid"), enabled); err != nil {
		log.Println("Rule toggle failed", err)
		return flowErrorResponse(c, err, "Rule toggle failed", "RULE_TOGGLE_FAILED")
	}
	return successResponse(c, fiber.StatusOK, message, nil)
}
