package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/repository"
)

var ErrCodeUIDTaken = errors.New("code uid is already registered")

// QRCodeFlow registers the codes everything else hangs off of. Deleting a
// code cascades to its versions, tests, rules, schedules and analytics.
type QRCodeFlow interface {
	Create(ctx context.Context, req *dto.CreateQRCodeRequest) (*dto.QRCodeResponse, error)
	Get(ctx context.Context, uid string) (*dto.QRCodeResponse, error)
	Delete(ctx context.Context, uid string) error
}

type QRCodeFlowImpl struct {
	codeRepo repository.QRCodeRepository
	cache    *ResolutionCache
}

func NewQRCodeFlow(codeRepo repository.QRCodeRepository, cache *ResolutionCache) QRCodeFlow {
	return &QRCodeFlowImpl{codeRepo: codeRepo, cache: cache}
}

// Create registers a new code under a caller-chosen UID
func (f *QRCodeFlowImpl) Create(ctx context.Context, req *dto.CreateQRCodeRequest) (*dto.QRCodeResponse, error) {
	existing, err := f.codeRepo.ByUID(ctx, req.UID)
	if err != nil {
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to lookup code", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CODE_UID_TAKEN", "Code uid is already registered", ErrCodeUIDTaken)
	}

	code := &models.QRCode{UID: req.UID, Name: req.Name}
	if err := f.codeRepo.Save(ctx, code); err != nil {
		return nil, NewBusinessError("CODE_CREATION_FAILED", "Code creation failed", err)
	}
	resp := toQRCodeResponse(code)
	return &resp, nil
}

// Get returns a code by its UID
func (f *QRCodeFlowImpl) Get(ctx context.Context, uid string) (*dto.QRCodeResponse, error) {
	code, err := getCode(ctx, f.codeRepo, uid)
	if err != nil {
		return nil, err
	}
	resp := toQRCodeResponse(code)
	return &resp, nil
}

// Delete removes a code and, through the schema, all of its children
func (f *QRCodeFlowImpl) Delete(ctx context.Context, uid string) error {
	code, err := getCode(ctx, f.codeRepo, uid)
	if err != nil {
		return err
	}
	if err := f.codeRepo.Delete(ctx, code.ID); err != nil {
		return NewBusinessError("CODE_DELETE_FAILED", "Code deletion failed", err)
	}
	f.cache.Invalidate(ctx, code.ID)
	return nil
}

func toQRCodeResponse(code *models.QRCode) dto.QRCodeResponse {
	return dto.QRCodeResponse{
		UUID:      code.UUID.String(),
		UID:       code.UID,
		Name:      code.Name,
		CreatedAt: code.CreatedAt.Format(time.RFC3339),
	}
}
