package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/repository"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
)

// ContentScheduleFlow manages time-window based version activation.
// FindActive is a pure read; schedules never mutate version state.
type ContentScheduleFlow interface {
	Create(ctx context.Context, req *dto.CreateContentScheduleRequest) (*dto.ContentScheduleResponse, error)
	Update(ctx context.Context, scheduleUUID string, req *dto.UpdateContentScheduleRequest) (*dto.ContentScheduleResponse, error)
	Delete(ctx context.Context, scheduleUUID string) error
	FindActive(ctx context.Context, codeID uint, asOf time.Time) (*models.ContentSchedule, error)
}

type ContentScheduleFlowImpl struct {
	codeRepo     repository.QRCodeRepository
	versionRepo  repository.ContentVersionRepository
	scheduleRepo repository.ContentScheduleRepository
}

func NewContentScheduleFlow(
	codeRepo repository.QRCodeRepository,
	versionRepo repository.ContentVersionRepository,
	scheduleRepo repository.ContentScheduleRepository,
) ContentScheduleFlow {
	return &ContentScheduleFlowImpl{
		codeRepo:     codeRepo,
		versionRepo:  versionRepo,
		scheduleRepo: scheduleRepo,
	}
}

// Create validates the schedule and persists it
func (f *ContentScheduleFlowImpl) Create(ctx context.Context, req *dto.CreateContentScheduleRequest) (*dto.ContentScheduleResponse, error) {
	if req.ScheduleName == "" {
		return nil, NewValidationError("SCHEDULE_NAME_REQUIRED", "Schedule name is required", ErrScheduleNameRequired)
	}
	if req.StartTime.IsZero() {
		return nil, NewValidationError("START_TIME_REQUIRED", "Start time is required", ErrStartTimeRequired)
	}

	pattern := models.RepeatPattern(utils.ValueOr(req.RepeatPattern, string(models.RepeatPatternNone)))
	if !pattern.Valid() {
		return nil, NewValidationError("INVALID_REPEAT_PATTERN", "Invalid repeat pattern", ErrInvalidRepeatPattern)
	}
	if pattern != models.RepeatPatternNone && len(req.RepeatDays) == 0 {
		return nil, NewValidationError("REPEAT_DAYS_REQUIRED", "Repeat days are required for recurring schedules", ErrRepeatDaysRequired)
	}

	tz := utils.ValueOr(req.Timezone, "UTC")
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, NewValidationError("INVALID_TIMEZONE", "Invalid timezone", ErrInvalidTimezone)
	}

	code, err := getCode(ctx, f.codeRepo, req.CodeUID)
	if err != nil {
		return nil, err
	}
	version, err := f.resolveVersion(ctx, code.ID, req.Version)
	if err != nil {
		return nil, err
	}

	schedule := &models.ContentSchedule{
		CodeID:        code.ID,
		VersionID:     version.ID,
		ScheduleName:  req.ScheduleName,
		StartTime:     utils.TimeToUTC(req.StartTime),
		EndTime:       utils.TimeToUTCPtr(req.EndTime),
		RepeatPattern: pattern,
		RepeatDays:    models.WeekdaySet(req.RepeatDays),
		Timezone:      tz,
		IsActive:      utils.ToPtr(req.IsActive == nil || *req.IsActive),
	}
	if err := f.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, NewBusinessError("SCHEDULE_CREATION_FAILED", "Schedule creation failed", err)
	}

	resp := toContentScheduleResponse(schedule, code.UID, version.UUID)
	return &resp, nil
}

// Update patches a schedule
func (f *ContentScheduleFlowImpl) Update(ctx context.Context, scheduleUUID string, req *dto.UpdateContentScheduleRequest) (*dto.ContentScheduleResponse, error) {
	schedule, err := getSchedule(ctx, f.scheduleRepo, scheduleUUID)
	if err != nil {
		return nil, err
	}

	if req.ScheduleName != nil {
		if *req.ScheduleName == "" {
			return nil, NewValidationError("SCHEDULE_NAME_REQUIRED", "Schedule name is required", ErrScheduleNameRequired)
		}
		schedule.ScheduleName = *req.ScheduleName
	}
	if req.StartTime != nil {
		schedule.StartTime = utils.TimeToUTC(*req.StartTime)
	}
	if req.EndTime != nil {
		schedule.EndTime = utils.TimeToUTCPtr(req.EndTime)
	}
	if req.RepeatPattern != nil {
		pattern := models.RepeatPattern(*req.RepeatPattern)
		if !pattern.Valid() {
			return nil, NewValidationError("INVALID_REPEAT_PATTERN", "Invalid repeat pattern", ErrInvalidRepeatPattern)
		}
		schedule.RepeatPattern = pattern
	}
	if req.RepeatDays != nil {
		schedule.RepeatDays = models.WeekdaySet(req.RepeatDays)
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, NewValidationError("INVALID_TIMEZONE", "Invalid timezone", ErrInvalidTimezone)
		}
		schedule.Timezone = *req.Timezone
	}
	if req.IsActive != nil {
		schedule.IsActive = req.IsActive
	}
	if schedule.RepeatPattern != models.RepeatPatternNone && len(schedule.RepeatDays) == 0 {
		return nil, NewValidationError("REPEAT_DAYS_REQUIRED", "Repeat days are required for recurring schedules", ErrRepeatDaysRequired)
	}

	if err := f.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, NewBusinessError("SCHEDULE_UPDATE_FAILED", "Schedule update failed", err)
	}

	code, err := f.codeRepo.ByID(ctx, schedule.CodeID)
	if err != nil || code == nil {
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to lookup code", err)
	}
	version, err := f.versionRepo.ByID(ctx, schedule.VersionID)
	if err != nil || version == nil {
		return nil, NewBusinessError("VERSION_LOOKUP_FAILED", "Failed to lookup version", err)
	}
	resp := toContentScheduleResponse(schedule, code.UID, version.UUID)
	return &resp, nil
}

// Delete removes a schedule
func (f *ContentScheduleFlowImpl) Delete(ctx context.Context, scheduleUUID string) error {
	schedule, err := getSchedule(ctx, f.scheduleRepo, scheduleUUID)
	if err != nil {
		return err
	}
	if err := f.scheduleRepo.Delete(ctx, schedule.ID); err != nil {
		return NewBusinessError("SCHEDULE_DELETE_FAILED", "Schedule deletion failed", err)
	}
	return nil
}

// FindActive returns the schedule currently covering asOf. When several
// qualify the most recently created one wins.
func (f *ContentScheduleFlowImpl) FindActive(ctx context.Context, codeID uint, asOf time.Time) (*models.ContentSchedule, error) {
	schedules, err := f.scheduleRepo.ListActiveByCode(ctx, codeID, asOf)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LIST_FAILED", "Failed to load schedules", err)
	}
	// Rows arrive newest-first, so the first recurrence hit is the winner.
	for _, s := range schedules {
		if s.ActiveAt(asOf) {
			return s, nil
		}
	}
	return nil, nil
}

func (f *ContentScheduleFlowImpl) resolveVersion(ctx context.Context, codeID uint, versionUUID string) (*models.ContentVersion, error) {
	id, err := uuid.Parse(versionUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_VERSION_UUID", "Invalid version UUID", err)
	}
	version, err := f.versionRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("VERSION_LOOKUP_FAILED", "Failed to lookup version", err)
	}
	if version == nil {
		return nil, NewNotFoundError("VERSION_NOT_FOUND", "Content version not found", ErrVersionNotFound)
	}
	if version.CodeID != codeID {
		return nil, NewValidationError("VERSION_NOT_OWNED", "Version does not belong to the code", ErrTargetVersionMissing)
	}
	return version, nil
}

func toContentScheduleResponse(s *models.ContentSchedule, codeUID string, versionUUID uuid.UUID) dto.ContentScheduleResponse {
	return dto.ContentScheduleResponse{
		UUID:          s.UUID.String(),
		CodeUID:       codeUID,
		Version:       versionUUID.String(),
		ScheduleName:  s.ScheduleName,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		RepeatPattern: s.RepeatPattern.String(),
		RepeatDays:    []int(s.RepeatDays),
		Timezone:      s.Timezone,
		IsActive:      utils.IsTrue(s.IsActive),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

func getSchedule(ctx context.Context, repo repository.ContentScheduleRepository, scheduleUUID string) (*models.ContentSchedule, error) {
	id, err := uuid.Parse(scheduleUUID)
	if err != nil {
		return nil, NewValidationError("INVALID_SCHEDULE_UUID", "Invalid schedule UUID", err)
	}
	schedule, err := repo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LOOKUP_FAILED", "Failed to lookup schedule", err)
	}
	if schedule == nil {
		return nil, NewNotFoundError("SCHEDULE_NOT_FOUND", "Content schedule not found", ErrScheduleNotFound)
	}
	return schedule, nil
}
