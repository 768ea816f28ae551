package businessflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
)

// In-memory repository fakes backing the flow tests. IDs are assigned on
// Save, list methods mirror the ordering contracts of the real repositories.

type fakeCodeRepo struct {
	mu     sync.Mutex
	codes  []*models.QRCode
	nextID uint
}

func newFakeCodeRepo() *fakeCodeRepo { return &fakeCodeRepo{} }

func (r *fakeCodeRepo) ByID(ctx context.Context, id uint) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCodeRepo) ByUID(ctx context.Context, uid string) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.UID == uid {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCodeRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.UUID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCodeRepo) Save(ctx context.Context, code *models.QRCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	code.ID = r.nextID
	if code.UUID == uuid.Nil {
		code.UUID = uuid.New()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = utils.UTCNow()
	}
	r.codes = append(r.codes, code)
	return nil
}

func (r *fakeCodeRepo) SaveBatch(ctx context.Context, codes []*models.QRCode) error {
	for _, c := range codes {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeCodeRepo) Update(ctx context.Context, code *models.QRCode) error { return nil }

func (r *fakeCodeRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeCodeRepo) ByFilter(ctx context.Context, filter models.QRCodeFilter, orderBy string, limit, offset int) ([]*models.QRCode, error) {
	return nil, nil
}

func (r *fakeCodeRepo) Count(ctx context.Context, filter models.QRCodeFilter) (int64, error) {
	return 0, nil
}

func (r *fakeCodeRepo) Exists(ctx context.Context, filter models.QRCodeFilter) (bool, error) {
	return false, nil
}

type fakeVersionRepo struct {
	mu       sync.Mutex
	versions []*models.ContentVersion
	nextID   uint
}

func newFakeVersionRepo() *fakeVersionRepo { return &fakeVersionRepo{} }

func (r *fakeVersionRepo) ByID(ctx context.Context, id uint) (*models.ContentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (r *fakeVersionRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.ContentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.UUID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (r *fakeVersionRepo) GetActiveByCode(ctx context.Context, codeID uint) (*models.ContentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.versions) - 1; i >= 0; i-- {
		v := r.versions[i]
		if v.CodeID == codeID && utils.IsTrue(v.IsActive) {
			return v, nil
		}
	}
	return nil, nil
}

func (r *fakeVersionRepo) DeactivateAllByCode(ctx context.Context, codeID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.CodeID == codeID {
			v.IsActive = utils.ToPtr(false)
		}
	}
	return nil
}

func (r *fakeVersionRepo) SetActive(ctx context.Context, versionID uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.ID == versionID {
			v.IsActive = utils.ToPtr(active)
		}
	}
	return nil
}

func (r *fakeVersionRepo) ListByCode(ctx context.Context, codeID uint) ([]*models.ContentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ContentVersion
	for i := len(r.versions) - 1; i >= 0; i-- {
		if r.versions[i].CodeID == codeID {
			out = append(out, r.versions[i])
		}
	}
	return out, nil
}

func (r *fakeVersionRepo) Save(ctx context.Context, v *models.ContentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	v.ID = r.nextID
	if v.UUID == uuid.Nil {
		v.UUID = uuid.New()
	}
	if v.IsActive == nil {
		v.IsActive = utils.ToPtr(false)
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = utils.UTCNow()
	}
	r.versions = append(r.versions, v)
	return nil
}

func (r *fakeVersionRepo) SaveBatch(ctx context.Context, versions []*models.ContentVersion) error {
	for _, v := range versions {
		if err := r.Save(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeVersionRepo) Update(ctx context.Context, v *models.ContentVersion) error { return nil }

func (r *fakeVersionRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.versions[:0]
	for _, v := range r.versions {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	r.versions = kept
	return nil
}

func (r *fakeVersionRepo) ByFilter(ctx context.Context, filter models.ContentVersionFilter, orderBy string, limit, offset int) ([]*models.ContentVersion, error) {
	return nil, nil
}

func (r *fakeVersionRepo) Count(ctx context.Context, filter models.ContentVersionFilter) (int64, error) {
	return 0, nil
}

func (r *fakeVersionRepo) Exists(ctx context.Context, filter models.ContentVersionFilter) (bool, error) {
	return false, nil
}

// activeCount reports how many versions of a code carry the active flag
func (r *fakeVersionRepo) activeCount(codeID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.versions {
		if v.CodeID == codeID && utils.IsTrue(v.IsActive) {
			n++
		}
	}
	return n
}

type fakeTestRepo struct {
	mu     sync.Mutex
	tests  []*models.ABTest
	nextID uint
}

func newFakeTestRepo() *fakeTestRepo { return &fakeTestRepo{} }

func (r *fakeTestRepo) ByID(ctx context.Context, id uint) (*models.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tests {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTestRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tests {
		if t.UUID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTestRepo) FindRunningByCode(ctx context.Context, codeID uint) (*models.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tests {
		if t.CodeID == codeID && t.Status == models.ABTestStatusRunning {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTestRepo) CountRunningByCode(ctx context.Context, codeID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tests {
		if t.CodeID == codeID && t.Status == models.ABTestStatusRunning {
			n++
		}
	}
	return n, nil
}

func (r *fakeTestRepo) ExistsRunningWithVariant(ctx context.Context, versionID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tests {
		if t.Status == models.ABTestStatusRunning && t.References(versionID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTestRepo) Save(ctx context.Context, t *models.ABTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.ABTestStatusDraft
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	r.tests = append(r.tests, t)
	return nil
}

func (r *fakeTestRepo) SaveBatch(ctx context.Context, tests []*models.ABTest) error {
	for _, t := range tests {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTestRepo) Update(ctx context.Context, t *models.ABTest) error { return nil }

func (r *fakeTestRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tests[:0]
	for _, t := range r.tests {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.tests = kept
	return nil
}

func (r *fakeTestRepo) ByFilter(ctx context.Context, filter models.ABTestFilter, orderBy string, limit, offset int) ([]*models.ABTest, error) {
	return nil, nil
}

func (r *fakeTestRepo) Count(ctx context.Context, filter models.ABTestFilter) (int64, error) {
	return 0, nil
}

func (r *fakeTestRepo) Exists(ctx context.Context, filter models.ABTestFilter) (bool, error) {
	return false, nil
}

type fakeRuleRepo struct {
	mu     sync.Mutex
	rules  []*models.RedirectRule
	nextID uint
}

func newFakeRuleRepo() *fakeRuleRepo { return &fakeRuleRepo{} }

func (r *fakeRuleRepo) ByID(ctx context.Context, id uint) (*models.RedirectRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return nil, nil
}

func (r *fakeRuleRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.RedirectRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.UUID == id {
			return rule, nil
		}
	}
	return nil, nil
}

func (r *fakeRuleRepo) ListEnabledByCode(ctx context.Context, codeID uint) ([]*models.RedirectRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RedirectRule
	for _, rule := range r.rules {
		if rule.CodeID == codeID && utils.IsTrue(rule.IsEnabled) {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (r *fakeRuleRepo) Save(ctx context.Context, rule *models.RedirectRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rule.ID = r.nextID
	if rule.UUID == uuid.Nil {
		rule.UUID = uuid.New()
	}
	if rule.IsEnabled == nil {
		rule.IsEnabled = utils.ToPtr(true)
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = utils.UTCNow()
	}
	r.rules = append(r.rules, rule)
	return nil
}

func (r *fakeRuleRepo) SaveBatch(ctx context.Context, rules []*models.RedirectRule) error {
	for _, rule := range rules {
		if err := r.Save(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRuleRepo) Update(ctx context.Context, rule *models.RedirectRule) error { return nil }

func (r *fakeRuleRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rules[:0]
	for _, rule := range r.rules {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	r.rules = kept
	return nil
}

func (r *fakeRuleRepo) ByFilter(ctx context.Context, filter models.RedirectRuleFilter, orderBy string, limit, offset int) ([]*models.RedirectRule, error) {
	return nil, nil
}

func (r *fakeRuleRepo) Count(ctx context.Context, filter models.RedirectRuleFilter) (int64, error) {
	return 0, nil
}

func (r *fakeRuleRepo) Exists(ctx context.Context, filter models.RedirectRuleFilter) (bool, error) {
	return false, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules []*models.ContentSchedule
	nextID    uint
}

func newFakeScheduleRepo() *fakeScheduleRepo { return &fakeScheduleRepo{} }

func (r *fakeScheduleRepo) ByID(ctx context.Context, id uint) (*models.ContentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.ContentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.UUID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) ListActiveByCode(ctx context.Context, codeID uint, asOf time.Time) ([]*models.ContentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Newest first, matching the created_at DESC ordering of the real query
	var out []*models.ContentSchedule
	for i := len(r.schedules) - 1; i >= 0; i-- {
		s := r.schedules[i]
		if s.CodeID == codeID && utils.IsTrue(s.IsActive) && !s.StartTime.After(asOf) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) Save(ctx context.Context, s *models.ContentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	r.schedules = append(r.schedules, s)
	return nil
}

func (r *fakeScheduleRepo) SaveBatch(ctx context.Context, schedules []*models.ContentSchedule) error {
	for _, s := range schedules {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeScheduleRepo) Update(ctx context.Context, s *models.ContentSchedule) error { return nil }

func (r *fakeScheduleRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.schedules[:0]
	for _, s := range r.schedules {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.schedules = kept
	return nil
}

func (r *fakeScheduleRepo) ByFilter(ctx context.Context, filter models.ContentScheduleFilter, orderBy string, limit, offset int) ([]*models.ContentSchedule, error) {
	return nil, nil
}

func (r *fakeScheduleRepo) Count(ctx context.Context, filter models.ContentScheduleFilter) (int64, error) {
	return 0, nil
}

func (r *fakeScheduleRepo) Exists(ctx context.Context, filter models.ContentScheduleFilter) (bool, error) {
	return false, nil
}

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	records []*models.DynamicAnalyticsRecord
	saveErr error
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo { return &fakeAnalyticsRepo{} }

func (r *fakeAnalyticsRepo) Save(ctx context.Context, record *models.DynamicAnalyticsRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	record.ID = uint(len(r.records) + 1)
	r.records = append(r.records, record)
	return nil
}

func (r *fakeAnalyticsRepo) ByFilter(ctx context.Context, filter models.DynamicAnalyticsFilter, orderBy string, limit, offset int) ([]*models.DynamicAnalyticsRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DynamicAnalyticsRecord
	for _, rec := range r.records {
		if filter.CodeID != nil && rec.CodeID != *filter.CodeID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeAnalyticsRepo) Count(ctx context.Context, filter models.DynamicAnalyticsFilter) (int64, error) {
	recs, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(recs)), nil
}

func (r *fakeAnalyticsRepo) StatsByCode(ctx context.Context, codeID uint) (*models.CodeStats, error) {
	recs, _ := r.ByFilter(ctx, models.DynamicAnalyticsFilter{CodeID: &codeID}, "", 0, 0)
	return &models.CodeStats{TotalScans: int64(len(recs))}, nil
}

func (r *fakeAnalyticsRepo) saved() []*models.DynamicAnalyticsRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.DynamicAnalyticsRecord, len(r.records))
	copy(out, r.records)
	return out
}

// recordingAnalytics captures scan events handed to the analytics pipeline
type recordingAnalytics struct {
	mu     sync.Mutex
	events []ScanEvent
}

func (a *recordingAnalytics) Record(event ScanEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAnalytics) Start() {}

func (a *recordingAnalytics) Stop(ctx context.Context) error { return nil }

func (a *recordingAnalytics) GetStats(ctx context.Context, codeUID string) (*dto.CodeStatsResponse, error) {
	return nil, nil
}

func (a *recordingAnalytics) ExportXLSX(ctx context.Context, codeUID string) ([]byte, error) {
	return nil, nil
}

func (a *recordingAnalytics) recorded() []ScanEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ScanEvent, len(a.events))
	copy(out, a.events)
	return out
}

// staticParser returns a fixed parse result regardless of input
type staticParser struct {
	info DeviceInfo
}

func (p *staticParser) Parse(userAgent string) DeviceInfo { return p.info }
