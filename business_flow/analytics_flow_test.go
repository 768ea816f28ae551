package businessflow

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newAnalyticsFixture(t *testing.T, queueSize int) (*AnalyticsFlowImpl, *fakeCodeRepo, *fakeAnalyticsRepo) {
	t.Helper()
	codeRepo := newFakeCodeRepo()
	analyticsRepo := newFakeAnalyticsRepo()
	parser := &staticParser{info: DeviceInfo{DeviceType: "mobile", Browser: "chrome", OS: "android"}}
	flow := NewAnalyticsFlow(codeRepo, analyticsRepo, parser, queueSize).(*AnalyticsFlowImpl)
	return flow, codeRepo, analyticsRepo
}

func TestAnalyticsWorker(t *testing.T) {
	t.Run("DrainsQueueOnStop", func(t *testing.T) {
		flow, _, repo := newAnalyticsFixture(t, 16)
		flow.Start()

		now := utils.UTCNow()
		for i := range 5 {
			flow.Record(ScanEvent{CodeID: 1, VersionID: uint(i + 1), OccurredAt: now})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, flow.Stop(ctx))
		assert.Len(t, repo.saved(), 5)
	})

	t.Run("RecordNeverBlocksOnFullQueue", func(t *testing.T) {
		// Worker not started, so the queue fills up and overflow is dropped
		flow, _, _ := newAnalyticsFixture(t, 2)

		done := make(chan struct{})
		go func() {
			for range 10 {
				flow.Record(ScanEvent{CodeID: 1, VersionID: 1})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full queue")
		}
	})

	t.Run("StopIsIdempotent", func(t *testing.T) {
		flow, _, _ := newAnalyticsFixture(t, 4)
		flow.Start()

		ctx := context.Background()
		require.NoError(t, flow.Stop(ctx))
		require.NoError(t, flow.Stop(ctx))
	})

	t.Run("PersistFailureDoesNotStopTheWorker", func(t *testing.T) {
		flow, _, repo := newAnalyticsFixture(t, 16)
		repo.saveErr = assert.AnError
		flow.Start()

		flow.Record(ScanEvent{CodeID: 1, VersionID: 1})
		repo.mu.Lock()
		repo.saveErr = nil
		repo.mu.Unlock()
		flow.Record(ScanEvent{CodeID: 1, VersionID: 2})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, flow.Stop(ctx))
		assert.NotEmpty(t, repo.saved())
	})
}

func TestAnalyticsToRecord(t *testing.T) {
	flow, _, _ := newAnalyticsFixture(t, 4)
	now := utils.UTCNow()
	testID := uint(3)

	t.Run("FullContext", func(t *testing.T) {
		record := flow.toRecord(ScanEvent{
			CodeID:    1,
			VersionID: 2,
			ABTestID:  &testID,
			Variant:   utils.ToPtr("A"),
			Context: ResolutionContext{
				UserAgent: "Mozilla/5.0 (Android)",
				IPAddress: "10.0.0.1",
				Referrer:  "https://ref.example.com",
				SessionID: "session-123",
				Country:   "DE",
				Region:    "Bavaria",
				City:      "Munich",
			},
			OccurredAt: now,
		})

		assert.Equal(t, uint(1), record.CodeID)
		assert.Equal(t, uint(2), record.VersionID)
		require.NotNil(t, record.ABTestID)
		assert.Equal(t, testID, *record.ABTestID)
		assert.Equal(t, "A", *record.Variant)
		assert.Equal(t, "mobile", *record.DeviceType)
		assert.Equal(t, "chrome", *record.Browser)
		assert.Equal(t, "android", *record.OS)
		assert.Equal(t, "DE", *record.Country)
		assert.Equal(t, "session-123", *record.SessionID)
		assert.Equal(t, now, record.CreatedAt)
	})

	t.Run("EmptyContextDefaultsToDesktop", func(t *testing.T) {
		record := flow.toRecord(ScanEvent{CodeID: 1, VersionID: 2, OccurredAt: now})

		require.NotNil(t, record.DeviceType)
		assert.Equal(t, "desktop", *record.DeviceType)
		assert.Nil(t, record.Browser)
		assert.Nil(t, record.OS)
		assert.Nil(t, record.Country)
		assert.Nil(t, record.IPAddress)
		assert.Nil(t, record.ABTestID)
	})
}

func TestAnalyticsReports(t *testing.T) {
	ctx := context.Background()
	flow, codeRepo, analyticsRepo := newAnalyticsFixture(t, 4)

	code := &models.QRCode{UID: "stats-01"}
	require.NoError(t, codeRepo.Save(ctx, code))
	for range 3 {
		require.NoError(t, analyticsRepo.Save(ctx, &models.DynamicAnalyticsRecord{
			CodeID:     code.ID,
			VersionID:  1,
			Country:    utils.ToPtr("DE"),
			DeviceType: utils.ToPtr("mobile"),
			CreatedAt:  utils.UTCNow(),
		}))
	}

	t.Run("GetStats", func(t *testing.T) {
		resp, err := flow.GetStats(ctx, "stats-01")
		require.NoError(t, err)
		assert.Equal(t, "stats-01", resp.CodeUID)
		assert.Equal(t, int64(3), resp.Stats.TotalScans)
	})

	t.Run("GetStatsUnknownCode", func(t *testing.T) {
		_, err := flow.GetStats(ctx, "missing")
		require.Error(t, err)
		assert.True(t, IsCodeNotFound(err))
	})

	t.Run("ExportXLSX", func(t *testing.T) {
		raw, err := flow.ExportXLSX(ctx, "stats-01")
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		xl, err := excelize.OpenReader(bytes.NewReader(raw))
		require.NoError(t, err)
		defer xl.Close()

		rows, err := xl.GetRows("Scans")
		require.NoError(t, err)
		require.Len(t, rows, 4) // header plus three records
		assert.Equal(t, "Scanned At", rows[0][0])
	})
}
