package businessflow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/repository"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xuri/excelize/v2"
)

var (
	analyticsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynamic_analytics_recorded_total",
		Help: "Total number of analytics records written",
	})
	analyticsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynamic_analytics_dropped_total",
		Help: "Total number of analytics records dropped because the queue was full",
	})
	analyticsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynamic_analytics_failed_total",
		Help: "Total number of analytics records that failed to persist",
	})
)

// ScanEvent describes one resolved scan handed to the analytics pipeline
type ScanEvent struct {
	CodeID         uint
	VersionID      uint
	ABTestID       *uint
	Variant        *string
	RedirectRuleID *uint
	Context        ResolutionContext
	OccurredAt     time.Time
}

// AnalyticsFlow records scan events off the request path and serves the
// aggregated reports. Record never blocks: events go through a bounded queue
// drained by a background worker, and overflow is dropped, not propagated.
type AnalyticsFlow interface {
	Record(event ScanEvent)
	Start()
	Stop(ctx context.Context) error
	GetStats(ctx context.Context, codeUID string) (*dto.CodeStatsResponse, error)
	ExportXLSX(ctx context.Context, codeUID string) ([]byte, error)
}

type AnalyticsFlowImpl struct {
	codeRepo      repository.QRCodeRepository
	analyticsRepo repository.AnalyticsRepository
	parser        UserAgentParser

	queue    chan ScanEvent
	stopOnce sync.Once
	done     chan struct{}
}

func NewAnalyticsFlow(
	codeRepo repository.QRCodeRepository,
	analyticsRepo repository.AnalyticsRepository,
	parser UserAgentParser,
	queueSize int,
) AnalyticsFlow {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &AnalyticsFlowImpl{
		codeRepo:      codeRepo,
		analyticsRepo: analyticsRepo,
		parser:        parser,
		queue:         make(chan ScanEvent, queueSize),
		done:          make(chan struct{}),
	}
}

// Record enqueues a scan event. When the queue is full the event is dropped
// and counted; resolution latency is never tied to analytics throughput.
func (f *AnalyticsFlowImpl) Record(event ScanEvent) {
	select {
	case f.queue <- event:
	default:
		analyticsDroppedTotal.Inc()
	}
}

// Start launches the background worker draining the queue
func (f *AnalyticsFlowImpl) Start() {
	go f.worker()
}

func (f *AnalyticsFlowImpl) worker() {
	defer close(f.done)
	for event := range f.queue {
		f.persist(event)
	}
}

// Stop closes the queue and waits for the worker to drain it
func (f *AnalyticsFlowImpl) Stop(ctx context.Context) error {
	f.stopOnce.Do(func() { close(f.queue) })
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *AnalyticsFlowImpl) persist(event ScanEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := f.toRecord(event)
	if err := f.analyticsRepo.Save(ctx, record); err != nil {
		analyticsFailedTotal.Inc()
		log.Printf("analytics: failed to persist scan record for code %d: %v", event.CodeID, err)
		return
	}
	analyticsRecordedTotal.Inc()
}

func (f *AnalyticsFlowImpl) toRecord(event ScanEvent) *models.DynamicAnalyticsRecord {
	record := &models.DynamicAnalyticsRecord{
		CodeID:         event.CodeID,
		VersionID:      event.VersionID,
		ABTestID:       event.ABTestID,
		Variant:        event.Variant,
		RedirectRuleID: event.RedirectRuleID,
		IPAddress:      optional(event.Context.IPAddress),
		Country:        optional(event.Context.Country),
		Region:         optional(event.Context.Region),
		City:           optional(event.Context.City),
		Referrer:       optional(event.Context.Referrer),
		SessionID:      optional(event.Context.SessionID),
		CreatedAt:      event.OccurredAt,
	}

	device := DeviceInfo{DeviceType: "desktop"}
	if f.parser != nil && event.Context.UserAgent != "" {
		device = f.parser.Parse(event.Context.UserAgent)
	}
	record.DeviceType = optional(device.DeviceType)
	record.Browser = optional(device.Browser)
	record.OS = optional(device.OS)
	return record
}

// GetStats aggregates the recorded scans of a code
func (f *AnalyticsFlowImpl) GetStats(ctx context.Context, codeUID string) (*dto.CodeStatsResponse, error) {
	code, err := getCode(ctx, f.codeRepo, codeUID)
	if err != nil {
		return nil, err
	}
	stats, err := f.analyticsRepo.StatsByCode(ctx, code.ID)
	if err != nil {
		return nil, NewBusinessError("STATS_LOOKUP_FAILED", "Failed to aggregate analytics", err)
	}
	return &dto.CodeStatsResponse{CodeUID: code.UID, Stats: *stats}, nil
}

// ExportXLSX writes the raw scan records of a code into a spreadsheet,
// newest first, one sheet.
func (f *AnalyticsFlowImpl) ExportXLSX(ctx context.Context, codeUID string) ([]byte, error) {
	code, err := getCode(ctx, f.codeRepo, codeUID)
	if err != nil {
		return nil, err
	}
	records, err := f.analyticsRepo.ByFilter(ctx, models.DynamicAnalyticsFilter{CodeID: &code.ID}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_EXPORT_FAILED", "Failed to load analytics records", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Scans"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	headers := []string{"Scanned At", "Version ID", "Variant", "Rule ID", "Device", "Browser", "OS", "Country", "Region", "City", "Referrer", "Session ID", "IP Address"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := xl.SetCellValue(sheet, cell, h); err != nil {
			return nil, NewBusinessError("ANALYTICS_EXPORT_FAILED", "Failed to build export", err)
		}
	}

	for rowIdx, r := range records {
		row := []any{
			r.CreatedAt.Format(time.RFC3339),
			strconv.FormatUint(uint64(r.VersionID), 10),
			utils.ValueOr(r.Variant, ""),
			uintPtrString(r.RedirectRuleID),
			utils.ValueOr(r.DeviceType, ""),
			utils.ValueOr(r.Browser, ""),
			utils.ValueOr(r.OS, ""),
			utils.ValueOr(r.Country, ""),
			utils.ValueOr(r.Region, ""),
			utils.ValueOr(r.City, ""),
			utils.ValueOr(r.Referrer, ""),
			utils.ValueOr(r.SessionID, ""),
			utils.ValueOr(r.IPAddress, ""),
		}
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := xl.SetCellValue(sheet, cell, value); err != nil {
				return nil, NewBusinessError("ANALYTICS_EXPORT_FAILED", "Failed to build export", err)
			}
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_EXPORT_FAILED", "Failed to write export", err)
	}
	return buf.Bytes(), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func uintPtrString(v *uint) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
