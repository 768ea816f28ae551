package businessflow

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/repository"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
)

// RedirectRuleFlow manages redirect rules and evaluates them against a
// visitor context. Evaluation is a pure function of the loaded rules and the
// context; it performs no writes.
type RedirectRuleFlow interface {
	Create(ctx context.Context, req *dto.CreateRedirectRuleRequest) (*dto.RedirectRuleResponse, error)
	Update(ctx context.Context, ruleUUID string, req *dto.UpdateRedirectRuleRequest) (*dto.RedirectRuleResponse, error)
	Delete(ctx context.Context, ruleUUID string) error
	Toggle(ctx context.Context, ruleUUID string, enabled bool) error
	Evaluate(ctx context.Context, codeID uint, rctx *ResolutionContext, asOf time.Time) (*models.RedirectRule, error)
}

type RedirectRuleFlowImpl struct {
	codeRepo    repository.QRCodeRepository
	versionRepo repository.ContentVersionRepository
	ruleRepo    repository.RedirectRuleRepository
	parser      UserAgentParser
}

func NewRedirectRuleFlow(
	codeRepo repository.QRCodeRepository,
	versionRepo repository.ContentVersionRepository,
	ruleRepo repository.RedirectRuleRepository,
	parser UserAgentParser,
) RedirectRuleFlow {
	return &RedirectRuleFlowImpl{
		codeRepo:    codeRepo,
		versionRepo: versionRepo,
		ruleRepo:    ruleRepo,
		parser:      parser,
	}
}

// Create validates the rule and its typed conditions and persists it
func (f *RedirectRuleFlowImpl) Create(ctx context.Context, req *dto.CreateRedirectRuleRequest) (*dto.RedirectRuleResponse, error) {
	if req.RuleName == "" {
		return nil, NewValidationError("RULE_NAME_REQUIRED", "Rule name is required", ErrRuleNameRequired)
	}
	ruleType := models.RuleType(req.RuleType)
	if !ruleType.Valid() {
		return nil, NewValidationError("INVALID_RULE_TYPE", "Invalid rule type", ErrInvalidRuleType)
	}
	if err := req.Conditions.Validate(ruleType); err != nil {
		return nil, NewValidationError("INVALID_CONDITIONS", "Rule conditions are invalid", err)
	}

	code, err := getCode(ctx, f.codeRepo, req.CodeUID)
	if err != nil {
		return nil, err
	}
	target, err := f.resolveTarget(ctx, code.ID, req.TargetVersion)
	if err != nil {
		return nil, err
	}

	rule := &models.RedirectRule{
		CodeID:          code.ID,
		RuleName:        req.RuleName,
		RuleType:        ruleType,
		Conditions:      req.Conditions,
		TargetVersionID: target.ID,
		Priority:        utils.ValueOr(req.Priority, 1),
		IsEnabled:       utils.ToPtr(req.IsEnabled == nil || *req.IsEnabled),
	}
	if err := f.ruleRepo.Save(ctx, rule); err != nil {
		return nil, NewBusinessError("RULE_CREATION_FAILED", "Rule creation failed", err)
	}

	resp := toRedirectRuleResponse(rule, code.UID, target.UUID)
	return &resp, nil
}

// Update patches a rule; changed conditions are re-validated against the
// rule's type
func (f *RedirectRuleFlowImpl) Update(ctx context.Context, ruleUUID string, req *dto.UpdateRedirectRuleRequest) (*dto.RedirectRuleResponse, error) {
	rule, err := getRule(ctx, f.ruleRepo, ruleUUID)
	if err != nil {
		return nil, err
	}

	if req.RuleName != nil {
		if *req.RuleName == "" {
			return nil, NewValidationError("RULE_NAME_REQUIRED", "Rule name is required", ErrRuleNameRequired)
		}
		rule.RuleName = *req.RuleName
	}
	if req.Conditions != nil {
		if err := req.Conditions.Validate(rule.RuleType); err != nil {
			return nil, NewValidationError("INVALID_CONDITIONS", "Rule conditions are invalid", err)
		}
		rule.Conditions = *req.Conditions
	}
	if req.TargetVersion != nil {
		target, err := f.resolveTarget(ctx, rule.CodeID, *req.TargetVersion)
		if err != nil {
			return nil, err
		}
		rule.TargetVersionID = target.ID
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsEnabled != nil {
		rule.IsEnabled = req.IsEnabled
	}

	if err := f.ruleRepo.Update(ctx, rule); err != nil {
		return nil, NewBusinessError("RULE_UPDATE_FAILED", "Rule update failed", err)
	}

	code, err := f.codeRepo.ByID(ctx, rule.CodeID)
	if err != nil || code == nil {
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to lookup code", err)
	}
	target, err := f.versionRepo.ByID(ctx, rule.TargetVersionID)
	if err != nil || target == nil {
		return nil, NewBusinessError("VERSION_LOOKUP_FAILED", "Failed to lookup target version", err)
	}
	resp := toRedirectRuleResponse(rule, code.UID, target.UUID)
	return &resp, nil
}

// Delete removes a rule; rules have a standalone lifecycle
func (f *RedirectRuleFlowImpl) Delete(ctx context.Context, ruleUUID string) error {
	rule, err := getRule(ctx, f.ruleRepo, ruleUUID)
	if err != nil {
		return err
	}
	if err := f.ruleRepo.Delete(ctx, rule.ID); err != nil {
		return NewBusinessError("RULE_DELETE_FAILED", "Rule deletion failed", err)
	}
	return nil
}

// Toggle enables or disables a rule without touching its definition
func (f *RedirectRuleFlowImpl) Toggle(ctx context.Context, ruleUUID string, enabled bool) error {
	rule, err := getRule(ctx, f.ruleRepo, ruleUUID)
	if err != nil {
		return err
	}
	rule.IsEnabled = utils.ToPtr(enabled)
	if err := f.ruleRepo.Update(ctx, rule); err != nil {
		return NewBusinessError("RULE_TOGGLE_FAILED", "Rule toggle failed", err)
	}
	return nil
}

// Evaluate returns the first enabled rule of the code, in priority order,
// whose conditions match the visitor context, or nil when none match.
func (f *RedirectRuleFlowImpl) Evaluate(ctx context.Context, codeID uint, rctx *ResolutionContext, asOf time.Time) (*models.RedirectRule, error) {
	rules, err := f.ruleRepo.ListEnabledByCode(ctx, codeID)
	if err != nil {
		return nil, NewBusinessError("RULE_LIST_FAILED", "Failed to load rules", err)
	}
	for _, rule := range rules {
		if f.matches(rule, rctx, asOf) {
			return rule, nil
		}
	}
	return nil, nil
}

func (f *RedirectRuleFlowImpl) matches(rule *models.RedirectRule, rctx *ResolutionContext, asOf time.Time) bool {
	switch rule.RuleType {
	case models.RuleTypeGeographic:
		return matchGeographic(rule.Conditions.Geographic, rctx)
	case models.RuleTypeDevice:
		return f.matchDevice(rule.Conditions.Device, rctx)
	case models.RuleTypeTime:
		return matchTime(rule.Conditions.Time, rctx.At(asOf))
	case models.RuleTypeCustom:
		// Reserved extension point: custom rules never match. Kept
		// deliberately so authored rules of this type stay inert
		// instead of failing open.
		return false
	default:
		return false
	}
}

// matchGeographic checks country membership first, then region, then city.
// A rule with no lists at all never matches.
func matchGeographic(c *models.GeographicConditions, rctx *ResolutionContext) bool {
	if c == nil {
		return false
	}
	if len(c.Countries) > 0 && rctx.Country != "" && containsFold(c.Countries, rctx.Country) {
		return true
	}
	if len(c.Regions) > 0 && rctx.Region != "" && containsFold(c.Regions, rctx.Region) {
		return true
	}
	if len(c.Cities) > 0 && rctx.City != "" && containsFold(c.Cities, rctx.City) {
		return true
	}
	return false
}

// matchDevice treats absent lists as wildcards and requires every present
// list to match. A missing user agent never matches.
func (f *RedirectRuleFlowImpl) matchDevice(c *models.DeviceConditions, rctx *ResolutionContext) bool {
	if c == nil || rctx.UserAgent == "" {
		return false
	}
	info := f.parser.Parse(rctx.UserAgent)
	if len(c.DeviceTypes) > 0 && !containsFold(c.DeviceTypes, info.DeviceType) {
		return false
	}
	if len(c.Browsers) > 0 && !containsFold(c.Browsers, info.Browser) {
		return false
	}
	if len(c.OperatingSystems) > 0 && !containsFold(c.OperatingSystems, info.OS) {
		return false
	}
	return true
}

// matchTime checks explicit ranges before weekdays, weekdays before hours
func matchTime(c *models.TimeConditions, at time.Time) bool {
	if c == nil {
		return false
	}
	for _, r := range c.TimeRanges {
		if inDailyRange(at, r) {
			return true
		}
	}
	if len(c.DaysOfWeek) > 0 && slices.Contains(c.DaysOfWeek, int(at.Weekday())) {
		return true
	}
	if len(c.HoursOfDay) > 0 && slices.Contains(c.HoursOfDay, at.Hour()) {
		return true
	}
	return false
}

// inDailyRange checks whether the time of day falls inside an "HH:MM" window,
// inclusive on both ends. Malformed bounds never match.
func inDailyRange(at time.Time, r models.TimeRange) bool {
	start, err := time.Parse("15:04", r.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", r.End)
	if err != nil {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if startMin <= endMin {
		return minute >= startMin && minute <= endMin
	}
	// Window crosses midnight
	return minute >= startMin || minute <= endMin
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func (f *RedirectRuleFlowImpl) resolveTarget(ctx context.Context, codeID uint, versionUUID string) (*models.ContentVersion, error) {
	id, err := uuid.Parse(versionUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_VERSION_UUID", "Invalid version UUID", err)
	}
	version, err := f.versionRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("VERSION_LOOKUP_FAILED", "Failed to lookup target version", err)
	}
	if version == nil {
		return nil, NewNotFoundError("VERSION_NOT_FOUND", "Content version not found", ErrVersionNotFound)
	}
	if version.CodeID != codeID {
		return nil, NewValidationError("TARGET_NOT_OWNED", "Target version does not belong to the code", ErrTargetVersionMissing)
	}
	return version, nil
}

func toRedirectRuleResponse(rule *models.RedirectRule, codeUID string, targetUUID uuid.UUID) dto.RedirectRuleResponse {
	return dto.RedirectRuleResponse{
		UUID:          rule.UUID.String(),
		CodeUID:       codeUID,
		RuleName:      rule.RuleName,
		RuleType:      rule.RuleType.String(),
		Conditions:    rule.Conditions,
		TargetVersion: targetUUID.String(),
		Priority:      rule.Priority,
		IsEnabled:     utils.IsTrue(rule.IsEnabled),
		CreatedAt:     rule.CreatedAt.Format(time.RFC3339),
	}
}

func getRule(ctx context.Context, repo repository.RedirectRuleRepository, ruleUUID string) (*models.RedirectRule, error) {
	id, err := uuid.Parse(ruleUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_RULE_UUID", "Invalid rule UUID", err)
	}
	rule, err := repo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("RULE_LOOKUP_FAILED", "Failed to lookup rule", err)
	}
	if rule == nil {
		return nil, NewNotFoundError("RULE_NOT_FOUND", "Redirect rule not found", ErrRuleNotFound)
	}
	return rule, nil
}
