// Package testing provides test utilities and database setup for testing the resolution engine
package testing

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCode creates a code with a random UID
func (tf *TestFixtures) CreateTestCode() (*models.QRCode, error) {
	name := "Test Code"
	code := &models.QRCode{
		UID:  fmt.Sprintf("code-%08d", rand.Intn(100000000)),
		Name: &name,
	}
	if err := tf.DB.DB.Create(code).Error; err != nil {
		return nil, fmt.Errorf("failed to create test code: %w", err)
	}
	return code, nil
}

// CreateTestVersion creates a content version pointing at the given URL
func (tf *TestFixtures) CreateTestVersion(codeID uint, url string, active bool) (*models.ContentVersion, error) {
	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, err
	}
	version := &models.ContentVersion{
		CodeID:   codeID,
		Content:  models.ContentPayload(payload),
		IsActive: utils.ToPtr(active),
	}
	if err := tf.DB.DB.Create(version).Error; err != nil {
		return nil, fmt.Errorf("failed to create test version: %w", err)
	}
	return version, nil
}

// CreateTestABTest creates a draft test over two versions of the code
func (tf *TestFixtures) CreateTestABTest(codeID, variantAID, variantBID uint, split int) (*models.ABTest, error) {
	test := &models.ABTest{
		CodeID:       codeID,
		TestName:     fmt.Sprintf("test-%06d", rand.Intn(1000000)),
		VariantAID:   variantAID,
		VariantBID:   variantBID,
		TrafficSplit: split,
		Status:       models.ABTestStatusDraft,
	}
	if err := tf.DB.DB.Create(test).Error; err != nil {
		return nil, fmt.Errorf("failed to create test ab test: %w", err)
	}
	return test, nil
}

// CreateTestRule creates an enabled geographic rule targeting the version
func (tf *TestFixtures) CreateTestRule(codeID, targetVersionID uint, countries []string, priority int) (*models.RedirectRule, error) {
	rule := &models.RedirectRule{
		CodeID:   codeID,
		RuleName: fmt.Sprintf("rule-%06d", rand.Intn(1000000)),
		RuleType: models.RuleTypeGeographic,
		Conditions: models.RuleConditions{
			Geographic: &models.GeographicConditions{Countries: countries},
		},
		TargetVersionID: targetVersionID,
		Priority:        priority,
		IsEnabled:       utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test rule: %w", err)
	}
	return rule, nil
}

// CreateTestSchedule creates an active one-off schedule for the version
func (tf *TestFixtures) CreateTestSchedule(codeID, versionID uint, schedule models.ContentSchedule) (*models.ContentSchedule, error) {
	schedule.CodeID = codeID
	schedule.VersionID = versionID
	if schedule.ScheduleName == "" {
		schedule.ScheduleName = fmt.Sprintf("schedule-%06d", rand.Intn(1000000))
	}
	if schedule.Timezone == "" {
		schedule.Timezone = "UTC"
	}
	if schedule.IsActive == nil {
		schedule.IsActive = utils.ToPtr(true)
	}
	if err := tf.DB.DB.Create(&schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test schedule: %w", err)
	}
	return &schedule, nil
}

// CreateTestScanRecord creates an analytics record for the version
func (tf *TestFixtures) CreateTestScanRecord(codeID, versionID uint, country, deviceType string) (*models.DynamicAnalyticsRecord, error) {
	record := &models.DynamicAnalyticsRecord{
		CodeID:     codeID,
		VersionID:  versionID,
		Country:    utils.ToPtr(country),
		DeviceType: utils.ToPtr(deviceType),
	}
	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test scan record: %w", err)
	}
	return record, nil
}
