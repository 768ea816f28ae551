package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/repository"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentVersionFlow owns the content versions of a code and enforces the
// single-active invariant: activating a version deactivates every other
// version of the same code inside one transaction.
type ContentVersionFlow interface {
	Create(ctx context.Context, req *dto.CreateContentVersionRequest) (*dto.ContentVersionResponse, error)
	Activate(ctx context.Context, versionUUID string) error
	Deactivate(ctx context.Context, versionUUID string) error
	Delete(ctx context.Context, versionUUID string) error
	GetActive(ctx context.Context, codeUID string) (*models.ContentVersion, error)
	List(ctx context.Context, codeUID string) (*dto.ListContentVersionsResponse, error)
}

type ContentVersionFlowImpl struct {
	codeRepo    repository.QRCodeRepository
	versionRepo repository.ContentVersionRepository
	testRepo    repository.ABTestRepository
	cache       *ResolutionCache
	db          *gorm.DB
}

func NewContentVersionFlow(
	codeRepo repository.QRCodeRepository,
	versionRepo repository.ContentVersionRepository,
	testRepo repository.ABTestRepository,
	cache *ResolutionCache,
	db *gorm.DB,
) ContentVersionFlow {
	return &ContentVersionFlowImpl{
		codeRepo:    codeRepo,
		versionRepo: versionRepo,
		testRepo:    testRepo,
		cache:       cache,
		db:          db,
	}
}

// Create persists a new content version. When the caller requests an active
// version, the deactivate-then-activate pair runs in one transaction so
// concurrent activations cannot leave two active rows.
func (f *ContentVersionFlowImpl) Create(ctx context.Context, req *dto.CreateContentVersionRequest) (*dto.ContentVersionResponse, error) {
	payload := models.ContentPayload(req.Content)
	if payload.IsEmpty() {
		return nil, NewValidationError("CONTENT_REQUIRED", "Content payload is required", ErrContentRequired)
	}

	code, err := getCode(ctx, f.codeRepo, req.CodeUID)
	if err != nil {
		return nil, err
	}

	version := &models.ContentVersion{
		CodeID:      code.ID,
		Content:     payload,
		RedirectURL: req.RedirectURL,
		IsActive:    utils.ToPtr(utils.IsTrue(req.IsActive)),
		ScheduledAt: utils.TimeToUTCPtr(req.ScheduledAt),
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if utils.IsTrue(req.IsActive) {
			if err := f.versionRepo.DeactivateAllByCode(txCtx, code.ID); err != nil {
				return err
			}
		}
		return f.versionRepo.Save(txCtx, version)
	})
	if err != nil {
		return nil, NewBusinessError("VERSION_CREATION_FAILED", "Content version creation failed", err)
	}

	f.cache.Invalidate(ctx, code.ID)

	resp := toContentVersionResponse(version, code.UID)
	return &resp, nil
}

// Activate marks a version active and every sibling inactive, atomically
func (f *ContentVersionFlowImpl) Activate(ctx context.Context, versionUUID string) error {
	version, err := getVersion(ctx, f.versionRepo, versionUUID)
	if err != nil {
		return err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.versionRepo.DeactivateAllByCode(txCtx, version.CodeID); err != nil {
			return err
		}
		return f.versionRepo.SetActive(txCtx, version.ID, true)
	})
	if err != nil {
		return NewBusinessError("VERSION_ACTIVATION_FAILED", "Content version activation failed", err)
	}

	f.cache.Invalidate(ctx, version.CodeID)
	return nil
}

// Deactivate clears the active flag of a version; a single write
func (f *ContentVersionFlowImpl) Deactivate(ctx context.Context, versionUUID string) error {
	version, err := getVersion(ctx, f.versionRepo, versionUUID)
	if err != nil {
		return err
	}
	if err := f.versionRepo.SetActive(ctx, version.ID, false); err != nil {
		return NewBusinessError("VERSION_DEACTIVATION_FAILED", "Content version deactivation failed", err)
	}
	f.cache.Invalidate(ctx, version.CodeID)
	return nil
}

// Delete removes a version unless a running test references it as a variant
func (f *ContentVersionFlowImpl) Delete(ctx context.Context, versionUUID string) error {
	version, err := getVersion(ctx, f.versionRepo, versionUUID)
	if err != nil {
		return err
	}

	referenced, err := f.testRepo.ExistsRunningWithVariant(ctx, version.ID)
	if err != nil {
		return NewBusinessError("VERSION_DELETE_CHECK_FAILED", "Failed to check running tests", err)
	}
	if referenced {
		return NewBusinessError("VERSION_REFERENCED_BY_TEST", "Version is referenced by a running ab test", ErrVersionReferencedByTest)
	}

	if err := f.versionRepo.Delete(ctx, version.ID); err != nil {
		return NewBusinessError("VERSION_DELETE_FAILED", "Content version deletion failed", err)
	}
	f.cache.Invalidate(ctx, version.CodeID)
	return nil
}

// GetActive returns the single active version of a code, or nil
func (f *ContentVersionFlowImpl) GetActive(ctx context.Context, codeUID string) (*models.ContentVersion, error) {
	code, err := getCode(ctx, f.codeRepo, codeUID)
	if err != nil {
		return nil, err
	}
	version, err := f.versionRepo.GetActiveByCode(ctx, code.ID)
	if err != nil {
		return nil, NewBusinessError("ACTIVE_VERSION_LOOKUP_FAILED", "Failed to lookup active version", err)
	}
	return version, nil
}

// List returns every version of a code, newest first
func (f *ContentVersionFlowImpl) List(ctx context.Context, codeUID string) (*dto.ListContentVersionsResponse, error) {
	code, err := getCode(ctx, f.codeRepo, codeUID)
	if err != nil {
		return nil, err
	}
	versions, err := f.versionRepo.ListByCode(ctx, code.ID)
	if err != nil {
		return nil, NewBusinessError("VERSION_LIST_FAILED", "Failed to list versions", err)
	}
	resp := &dto.ListContentVersionsResponse{Items: make([]dto.ContentVersionResponse, 0, len(versions)), Total: len(versions)}
	for _, v := range versions {
		resp.Items = append(resp.Items, toContentVersionResponse(v, code.UID))
	}
	return resp, nil
}

func toContentVersionResponse(v *models.ContentVersion, codeUID string) dto.ContentVersionResponse {
	return dto.ContentVersionResponse{
		UUID:        v.UUID.String(),
		CodeUID:     codeUID,
		Content:     []byte(v.Content),
		RedirectURL: v.RedirectURL,
		IsActive:    versionIsActive(v),
		ScheduledAt: v.ScheduledAt,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}

func getCode(ctx context.Context, repo repository.QRCodeRepository, uid string) (*models.QRCode, error) {
	code, err := repo.ByUID(ctx, uid)
	if err != nil {
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to lookup code", err)
	}
	if code == nil {
		return nil, NewNotFoundError("CODE_NOT_FOUND", "Code not found", ErrCodeNotFound)
	}
	return code, nil
}

func getVersion(ctx context.Context, repo repository.ContentVersionRepository, versionUUID string) (*models.ContentVersion, error) {
	id, err := uuid.Parse(versionUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_VERSION_UUID", "Invalid version UUID", err)
	}
	version, err := repo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("VERSION_LOOKUP_FAILED", "Failed to lookup version", err)
	}
	if version == nil {
		return nil, NewNotFoundError("VERSION_NOT_FOUND", "Content version not found", ErrVersionNotFound)
	}
	return version, nil
}
