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

// ABTestFlow manages the experiment lifecycle and performs deterministic,
// session-stable traffic splitting between two content versions.
type ABTestFlow interface {
	Create(ctx context.Context, req *dto.CreateABTestRequest) (*dto.ABTestResponse, error)
	Start(ctx context.Context, testUUID string) error
	Update(ctx context.Context, testUUID string, req *dto.UpdateABTestRequest) (*dto.ABTestResponse, error)
	Pause(ctx context.Context, testUUID string) error
	Complete(ctx context.Context, testUUID string, req *dto.CompleteABTestRequest) error
	Delete(ctx context.Context, testUUID string) error
	FindRunning(ctx context.Context, codeID uint) (*models.ABTest, error)
	AssignVariant(test *models.ABTest, rctx *ResolutionContext) (variant string, versionID uint)
}

type ABTestFlowImpl struct {
	codeRepo    repository.QRCodeRepository
	versionRepo repository.ContentVersionRepository
	testRepo    repository.ABTestRepository
	db          *gorm.DB
}

func NewABTestFlow(
	codeRepo repository.QRCodeRepository,
	versionRepo repository.ContentVersionRepository,
	testRepo repository.ABTestRepository,
	db *gorm.DB,
) ABTestFlow {
	return &ABTestFlowImpl{
		codeRepo:    codeRepo,
		versionRepo: versionRepo,
		testRepo:    testRepo,
		db:          db,
	}
}

// Create validates the variants and persists the test in draft state
func (f *ABTestFlowImpl) Create(ctx context.Context, req *dto.CreateABTestRequest) (*dto.ABTestResponse, error) {
	if req.TestName == "" {
		return nil, NewValidationError("TEST_NAME_REQUIRED", "Test name is required", ErrTestNameRequired)
	}
	if req.TrafficSplit != nil && (*req.TrafficSplit < 0 || *req.TrafficSplit > 100) {
		return nil, NewValidationError("TRAFFIC_SPLIT_OUT_OF_RANGE", "Traffic split must be between 0 and 100", ErrTrafficSplitOutOfRange)
	}
	if req.VariantA == req.VariantB {
		return nil, NewValidationError("VARIANTS_NOT_DISTINCT", "Variant versions must be distinct", ErrVariantsNotDistinct)
	}

	code, err := getCode(ctx, f.codeRepo, req.CodeUID)
	if err != nil {
		return nil, err
	}

	variantA, err := f.resolveVariant(ctx, code.ID, req.VariantA)
	if err != nil {
		return nil, err
	}
	variantB, err := f.resolveVariant(ctx, code.ID, req.VariantB)
	if err != nil {
		return nil, err
	}
	if variantA.ID == variantB.ID {
		return nil, NewValidationError("VARIANTS_NOT_DISTINCT", "Variant versions must be distinct", ErrVariantsNotDistinct)
	}

	test := &models.ABTest{
		CodeID:       code.ID,
		TestName:     req.TestName,
		VariantAID:   variantA.ID,
		VariantBID:   variantB.ID,
		TrafficSplit: utils.ValueOr(req.TrafficSplit, models.DefaultTrafficSplit),
		Status:       models.ABTestStatusDraft,
	}
	if err := f.testRepo.Save(ctx, test); err != nil {
		return nil, NewBusinessError("TEST_CREATION_FAILED", "Test creation failed", err)
	}

	resp := toABTestResponse(test, code.UID, variantA.UUID, variantB.UUID)
	return &resp, nil
}

// Start transitions a draft test to running. At most one test per code may
// run at a time; the check and the status write share one transaction.
func (f *ABTestFlowImpl) Start(ctx context.Context, testUUID string) error {
	test, err := getTest(ctx, f.testRepo, testUUID)
	if err != nil {
		return err
	}
	if test.Status != models.ABTestStatusDraft {
		return NewBusinessError("TEST_NOT_DRAFT", "Only draft tests can be started", ErrTestNotDraft)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		running, err := f.testRepo.CountRunningByCode(txCtx, test.CodeID)
		if err != nil {
			return err
		}
		if running > 0 {
			return ErrAnotherTestRunning
		}
		test.Status = models.ABTestStatusRunning
		return f.testRepo.Update(txCtx, test)
	})
	if err != nil {
		if IsAnotherTestRunning(err) {
			return NewBusinessError("ANOTHER_TEST_RUNNING", "Another test is already running for this code", err)
		}
		return NewBusinessError("TEST_START_FAILED", "Test start failed", err)
	}
	return nil
}

// Update patches the test name and, for non-running tests, the traffic split
func (f *ABTestFlowImpl) Update(ctx context.Context, testUUID string, req *dto.UpdateABTestRequest) (*dto.ABTestResponse, error) {
	test, err := getTest(ctx, f.testRepo, testUUID)
	if err != nil {
		return nil, err
	}

	if req.TrafficSplit != nil {
		if *req.TrafficSplit < 0 || *req.TrafficSplit > 100 {
			return nil, NewValidationError("TRAFFIC_SPLIT_OUT_OF_RANGE", "Traffic split must be between 0 and 100", ErrTrafficSplitOutOfRange)
		}
		if test.IsRunning() && *req.TrafficSplit != test.TrafficSplit {
			return nil, NewBusinessError("TRAFFIC_SPLIT_LOCKED", "Traffic split cannot change while the test is running", ErrTrafficSplitLocked)
		}
		test.TrafficSplit = *req.TrafficSplit
	}
	if req.TestName != nil {
		if *req.TestName == "" {
			return nil, NewValidationError("TEST_NAME_REQUIRED", "Test name is required", ErrTestNameRequired)
		}
		test.TestName = *req.TestName
	}

	if err := f.testRepo.Update(ctx, test); err != nil {
		return nil, NewBusinessError("TEST_UPDATE_FAILED", "Test update failed", err)
	}

	resp, err := f.toResponse(ctx, test)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Pause stops traffic splitting without discarding the test
func (f *ABTestFlowImpl) Pause(ctx context.Context, testUUID string) error {
	test, err := getTest(ctx, f.testRepo, testUUID)
	if err != nil {
		return err
	}
	test.Status = models.ABTestStatusPaused
	if err := f.testRepo.Update(ctx, test); err != nil {
		return NewBusinessError("TEST_PAUSE_FAILED", "Test pause failed", err)
	}
	return nil
}

// Complete finishes the test, optionally recording the winning variant
func (f *ABTestFlowImpl) Complete(ctx context.Context, testUUID string, req *dto.CompleteABTestRequest) error {
	test, err := getTest(ctx, f.testRepo, testUUID)
	if err != nil {
		return err
	}
	if req != nil && req.WinnerVariant != nil {
		if *req.WinnerVariant != models.ABTestVariantA && *req.WinnerVariant != models.ABTestVariantB {
			return NewValidationError("INVALID_WINNER_VARIANT", "Winner variant must be A or B", ErrInvalidWinnerVariant)
		}
		test.WinnerVariant = req.WinnerVariant
	}
	test.Status = models.ABTestStatusCompleted
	if err := f.testRepo.Update(ctx, test); err != nil {
		return NewBusinessError("TEST_COMPLETE_FAILED", "Test completion failed", err)
	}
	return nil
}

// Delete removes a test unless it is running
func (f *ABTestFlowImpl) Delete(ctx context.Context, testUUID string) error {
	test, err := getTest(ctx, f.testRepo, testUUID)
	if err != nil {
		return err
	}
	if !test.IsDeletable() {
		return NewBusinessError("TEST_RUNNING", "Running tests cannot be deleted", ErrTestRunning)
	}
	if err := f.testRepo.Delete(ctx, test.ID); err != nil {
		return NewBusinessError("TEST_DELETE_FAILED", "Test deletion failed", err)
	}
	return nil
}

// FindRunning returns the running test of a code, if any
func (f *ABTestFlowImpl) FindRunning(ctx context.Context, codeID uint) (*models.ABTest, error) {
	test, err := f.testRepo.FindRunningByCode(ctx, codeID)
	if err != nil {
		return nil, NewBusinessError("RUNNING_TEST_LOOKUP_FAILED", "Failed to lookup running test", err)
	}
	return test, nil
}

// AssignVariant deterministically maps the visitor's session key into one of
// the test's variants: bucket below the traffic split means variant A. The
// same key and an unchanged split always produce the same variant, without
// any per-session state.
func (f *ABTestFlowImpl) AssignVariant(test *models.ABTest, rctx *ResolutionContext) (string, uint) {
	bucket := utils.SessionKeyBucket(rctx.SessionKey())
	if bucket < test.TrafficSplit {
		return models.ABTestVariantA, test.VariantAID
	}
	return models.ABTestVariantB, test.VariantBID
}

func (f *ABTestFlowImpl) resolveVariant(ctx context.Context, codeID uint, variantUUID string) (*models.ContentVersion, error) {
	id, err := uuid.Parse(variantUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_VARIANT_UUID", "Invalid variant UUID", err)
	}
	version, err := f.versionRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("VARIANT_LOOKUP_FAILED", "Failed to lookup variant version", err)
	}
	if version == nil {
		return nil, NewNotFoundError("VERSION_NOT_FOUND", "Content version not found", ErrVersionNotFound)
	}
	if version.CodeID != codeID {
		return nil, NewValidationError("VARIANT_NOT_OWNED", "Variant version does not belong to the code", ErrVariantNotOwned)
	}
	return version, nil
}

func (f *ABTestFlowImpl) toResponse(ctx context.Context, test *models.ABTest) (*dto.ABTestResponse, error) {
	code, err := f.codeRepo.ByID(ctx, test.CodeID)
	if err != nil || code == nil {
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to lookup code", err)
	}
	variantA, err := f.versionRepo.ByID(ctx, test.VariantAID)
	if err != nil || variantA == nil {
		return nil, NewBusinessError("VARIANT_LOOKUP_FAILED", "Failed to lookup variant version", err)
	}
	variantB, err := f.versionRepo.ByID(ctx, test.VariantBID)
	if err != nil || variantB == nil {
		return nil, NewBusinessError("VARIANT_LOOKUP_FAILED", "Failed to lookup variant version", err)
	}
	resp := toABTestResponse(test, code.UID, variantA.UUID, variantB.UUID)
	return &resp, nil
}

func toABTestResponse(test *models.ABTest, codeUID string, variantA, variantB uuid.UUID) dto.ABTestResponse {
	return dto.ABTestResponse{
		UUID:          test.UUID.String(),
		CodeUID:       codeUID,
		TestName:      test.TestName,
		VariantA:      variantA.String(),
		VariantB:      variantB.String(),
		TrafficSplit:  test.TrafficSplit,
		Status:        test.Status.String(),
		WinnerVariant: test.WinnerVariant,
		CreatedAt:     test.CreatedAt.Format(time.RFC3339),
	}
}

func getTest(ctx context.Context, repo repository.ABTestRepository, testUUID string) (*models.ABTest, error) {
	id, err := uuid.Parse(testUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_TEST_UUID", "Invalid test UUID", err)
	}
	test, err := repo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("TEST_LOOKUP_FAILED", "Failed to lookup test", err)
	}
	if test == nil {
		return nil, NewNotFoundError("TEST_NOT_FOUND", "Test not found", ErrTestNotFound)
	}
	return test, nil
}
