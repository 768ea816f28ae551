package businessflow

import (
	"context"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/repository"
	"github.com/amirphl/Yata-no-Kagami/utils"
)

// ResolutionFlow is the scan-time entry point. Resolve walks the cascade in
// strict priority order and returns the redirect decision:
//
//  1. running A/B test: deterministic variant assignment
//  2. first matching redirect rule, by ascending priority
//  3. active content schedule covering the scan instant
//  4. the code's single active version, cache-assisted
//
// A dead end, a code with no resolvable version, is an error, not a silent
// fallthrough.
type ResolutionFlow interface {
	Resolve(ctx context.Context, codeUID string, rctx *ResolutionContext) (*dto.ResolutionResponse, error)
}

type ResolutionFlowImpl struct {
	codeRepo     repository.QRCodeRepository
	versionRepo  repository.ContentVersionRepository
	testFlow     ABTestFlow
	ruleFlow     RedirectRuleFlow
	scheduleFlow ContentScheduleFlow
	analytics    AnalyticsFlow
	cache        *ResolutionCache
	fallbackURL  string
}

func NewResolutionFlow(
	codeRepo repository.QRCodeRepository,
	versionRepo repository.ContentVersionRepository,
	testFlow ABTestFlow,
	ruleFlow RedirectRuleFlow,
	scheduleFlow ContentScheduleFlow,
	analytics AnalyticsFlow,
	cache *ResolutionCache,
	fallbackURL string,
) ResolutionFlow {
	return &ResolutionFlowImpl{
		codeRepo:     codeRepo,
		versionRepo:  versionRepo,
		testFlow:     testFlow,
		ruleFlow:     ruleFlow,
		scheduleFlow: scheduleFlow,
		analytics:    analytics,
		cache:        cache,
		fallbackURL:  fallbackURL,
	}
}

// Resolve walks the cascade and records the scan. Analytics recording is
// fire and forget; its outcome never changes the redirect.
func (f *ResolutionFlowImpl) Resolve(ctx context.Context, codeUID string, rctx *ResolutionContext) (*dto.ResolutionResponse, error) {
	code, err := getCode(ctx, f.codeRepo, codeUID)
	if err != nil {
		return nil, err
	}
	asOf := rctx.At(utils.UTCNow())

	event := ScanEvent{CodeID: code.ID, OccurredAt: asOf}
	if rctx != nil {
		event.Context = *rctx
	}

	// Step 1: running A/B test
	test, err := f.testFlow.FindRunning(ctx, code.ID)
	if err != nil {
		return nil, err
	}
	if test != nil {
		variant, versionID := f.testFlow.AssignVariant(test, rctx)
		version, err := f.versionRepo.ByID(ctx, versionID)
		if err != nil || version == nil {
			return nil, NewBusinessError("VARIANT_LOOKUP_FAILED", "Failed to lookup variant version", err)
		}
		event.VersionID = version.ID
		event.ABTestID = &test.ID
		event.Variant = &variant
		f.analytics.Record(event)
		return f.toResponse(code, version, dto.ResolutionSourceABTest, &variant), nil
	}

	// Step 2: redirect rules, in priority order
	rule, err := f.ruleFlow.Evaluate(ctx, code.ID, rctx, asOf)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		version, err := f.versionRepo.ByID(ctx, rule.TargetVersionID)
		if err != nil || version == nil {
			return nil, NewBusinessError("TARGET_VERSION_LOOKUP_FAILED", "Failed to lookup rule target version", err)
		}
		event.VersionID = version.ID
		event.RedirectRuleID = &rule.ID
		f.analytics.Record(event)
		return f.toResponse(code, version, dto.ResolutionSourceRule, nil), nil
	}

	// Step 3: active schedule covering the scan instant
	schedule, err := f.scheduleFlow.FindActive(ctx, code.ID, asOf)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		version, err := f.versionRepo.ByID(ctx, schedule.VersionID)
		if err != nil || version == nil {
			return nil, NewBusinessError("SCHEDULED_VERSION_LOOKUP_FAILED", "Failed to lookup scheduled version", err)
		}
		event.VersionID = version.ID
		f.analytics.Record(event)
		return f.toResponse(code, version, dto.ResolutionSourceSchedule, nil), nil
	}

	// Step 4: the single active version, cache first
	version, hit := f.cache.GetActiveVersion(ctx, code.ID)
	if !hit {
		version, err = f.versionRepo.GetActiveByCode(ctx, code.ID)
		if err != nil {
			return nil, NewBusinessError("ACTIVE_VERSION_LOOKUP_FAILED", "Failed to lookup active version", err)
		}
		if version != nil {
			f.cache.SetActiveVersion(ctx, code.ID, version)
		}
	}
	if version == nil {
		return nil, NewBusinessError("NO_ACTIVE_CONTENT", "no active content version found", ErrNoActiveContent)
	}

	event.VersionID = version.ID
	f.analytics.Record(event)
	return f.toResponse(code, version, dto.ResolutionSourceDefault, nil), nil
}

func (f *ResolutionFlowImpl) toResponse(code *models.QRCode, version *models.ContentVersion, source string, variant *string) *dto.ResolutionResponse {
	return &dto.ResolutionResponse{
		CodeUID:     code.UID,
		Version:     version.UUID.String(),
		RedirectURL: version.DefaultRedirect(f.fallbackURL),
		Content:     []byte(version.Content),
		Source:      source,
		Variant:     variant,
	}
}
