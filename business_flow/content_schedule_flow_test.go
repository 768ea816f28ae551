package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleFixture struct {
	codeRepo     *fakeCodeRepo
	versionRepo  *fakeVersionRepo
	scheduleRepo *fakeScheduleRepo
	flow         ContentScheduleFlow

	code    *models.QRCode
	version *models.ContentVersion
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	f := &scheduleFixture{
		codeRepo:     newFakeCodeRepo(),
		versionRepo:  newFakeVersionRepo(),
		scheduleRepo: newFakeScheduleRepo(),
	}
	f.flow = NewContentScheduleFlow(f.codeRepo, f.versionRepo, f.scheduleRepo)

	f.code = &models.QRCode{UID: "event-01"}
	require.NoError(t, f.codeRepo.Save(context.Background(), f.code))
	f.version = &models.ContentVersion{CodeID: f.code.ID, Content: models.ContentPayload(`"https://event.example.com"`)}
	require.NoError(t, f.versionRepo.Save(context.Background(), f.version))
	return f
}

func TestContentScheduleCreate(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("Valid", func(t *testing.T) {
		f := newScheduleFixture(t)
		resp, err := f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
			CodeUID:      f.code.UID,
			Version:      f.version.UUID.String(),
			ScheduleName: "lunch menu",
			StartTime:    start,
			EndTime:      utils.ToPtr(start.Add(8 * time.Hour)),
		})
		require.NoError(t, err)
		assert.Equal(t, "lunch menu", resp.ScheduleName)
		assert.Equal(t, models.RepeatPatternNone.String(), resp.RepeatPattern)
		assert.Equal(t, "UTC", resp.Timezone)
		assert.True(t, resp.IsActive)
	})

	t.Run("StartTimeRequired", func(t *testing.T) {
		f := newScheduleFixture(t)
		_, err := f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
			CodeUID:      f.code.UID,
			Version:      f.version.UUID.String(),
			ScheduleName: "s",
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("RecurringNeedsRepeatDays", func(t *testing.T) {
		f := newScheduleFixture(t)
		_, err := f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
			CodeUID:       f.code.UID,
			Version:       f.version.UUID.String(),
			ScheduleName:  "s",
			StartTime:     start,
			RepeatPattern: utils.ToPtr("weekly"),
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		_, err = f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
			CodeUID:       f.code.UID,
			Version:       f.version.UUID.String(),
			ScheduleName:  "s",
			StartTime:     start,
			RepeatPattern: utils.ToPtr("weekly"),
			RepeatDays:    []int{1, 3, 5},
		})
		require.NoError(t, err)
	})

	t.Run("InvalidTimezone", func(t *testing.T) {
		f := newScheduleFixture(t)
		_, err := f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
			CodeUID:      f.code.UID,
			Version:      f.version.UUID.String(),
			ScheduleName: "s",
			StartTime:    start,
			Timezone:     utils.ToPtr("Mars/Olympus_Mons"),
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("VersionMustBelongToCode", func(t *testing.T) {
		f := newScheduleFixture(t)
		other := &models.QRCode{UID: "other"}
		require.NoError(t, f.codeRepo.Save(ctx, other))
		foreign := &models.ContentVersion{CodeID: other.ID, Content: models.ContentPayload(`"x"`)}
		require.NoError(t, f.versionRepo.Save(ctx, foreign))

		_, err := f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
			CodeUID:      f.code.UID,
			Version:      foreign.UUID.String(),
			ScheduleName: "s",
			StartTime:    start,
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestContentScheduleFindActive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC) // a Wednesday

	add := func(t *testing.T, f *scheduleFixture, s models.ContentSchedule) *models.ContentSchedule {
		t.Helper()
		s.CodeID = f.code.ID
		s.VersionID = f.version.ID
		if s.ScheduleName == "" {
			s.ScheduleName = "s"
		}
		if s.Timezone == "" {
			s.Timezone = "UTC"
		}
		if s.IsActive == nil {
			s.IsActive = utils.ToPtr(true)
		}
		require.NoError(t, f.scheduleRepo.Save(ctx, &s))
		return &s
	}

	t.Run("WithinWindow", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{
			StartTime: now.Add(-time.Hour),
			EndTime:   utils.ToPtr(now.Add(time.Hour)),
		})

		got, err := f.flow.FindActive(ctx, f.code.ID, now)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("BeforeStartOrAfterEnd", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{
			StartTime: now.Add(time.Hour),
		})
		add(t, f, models.ContentSchedule{
			StartTime: now.Add(-3 * time.Hour),
			EndTime:   utils.ToPtr(now.Add(-2 * time.Hour)),
		})

		got, err := f.flow.FindActive(ctx, f.code.ID, now)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("OpenEndedWindow", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{StartTime: now.Add(-24 * time.Hour)})

		got, err := f.flow.FindActive(ctx, f.code.ID, now)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("InactiveScheduleIgnored", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{
			StartTime: now.Add(-time.Hour),
			IsActive:  utils.ToPtr(false),
		})

		got, err := f.flow.FindActive(ctx, f.code.ID, now)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NewestOfOverlappingWins", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{StartTime: now.Add(-2 * time.Hour)})
		newest := add(t, f, models.ContentSchedule{StartTime: now.Add(-time.Hour)})

		got, err := f.flow.FindActive(ctx, f.code.ID, now)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, newest.ID, got.ID)
	})

	t.Run("RecurringWeekday", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{
			StartTime:     now.Add(-7 * 24 * time.Hour),
			RepeatPattern: models.RepeatPatternWeekly,
			RepeatDays:    models.WeekdaySet{3}, // Wednesday
		})

		got, err := f.flow.FindActive(ctx, f.code.ID, now)
		require.NoError(t, err)
		assert.NotNil(t, got)

		thursday := now.Add(24 * time.Hour)
		got, err = f.flow.FindActive(ctx, f.code.ID, thursday)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RecurringHonorsTimezone", func(t *testing.T) {
		f := newScheduleFixture(t)
		add(t, f, models.ContentSchedule{
			StartTime:     now.Add(-7 * 24 * time.Hour),
			RepeatPattern: models.RepeatPatternWeekly,
			RepeatDays:    models.WeekdaySet{4}, // Thursday
			Timezone:      "Asia/Tokyo",
		})

		// 22:00 UTC Wednesday is already Thursday in Tokyo
		lateWednesday := time.Date(2026, 3, 11, 22, 0, 0, 0, time.UTC)
		got, err := f.flow.FindActive(ctx, f.code.ID, lateWednesday)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestContentScheduleUpdate(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := newScheduleFixture(t)

	created, err := f.flow.Create(ctx, &dto.CreateContentScheduleRequest{
		CodeUID:      f.code.UID,
		Version:      f.version.UUID.String(),
		ScheduleName: "window",
		StartTime:    start,
	})
	require.NoError(t, err)

	t.Run("PatternChangeRequiresDays", func(t *testing.T) {
		_, err := f.flow.Update(ctx, created.UUID, &dto.UpdateContentScheduleRequest{
			RepeatPattern: utils.ToPtr("daily"),
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		resp, err := f.flow.Update(ctx, created.UUID, &dto.UpdateContentScheduleRequest{
			RepeatPattern: utils.ToPtr("daily"),
			RepeatDays:    []int{0, 1, 2, 3, 4, 5, 6},
		})
		require.NoError(t, err)
		assert.Equal(t, "daily", resp.RepeatPattern)
	})

	t.Run("Deactivate", func(t *testing.T) {
		resp, err := f.flow.Update(ctx, created.UUID, &dto.UpdateContentScheduleRequest{
			IsActive: utils.ToPtr(false),
		})
		require.NoError(t, err)
		assert.False(t, resp.IsActive)
	})

	t.Run("DeleteThenLookupFails", func(t *testing.T) {
		require.NoError(t, f.flow.Delete(ctx, created.UUID))
		err := f.flow.Delete(ctx, created.UUID)
		require.Error(t, err)
		assert.True(t, IsScheduleNotFound(err))
	})
}
