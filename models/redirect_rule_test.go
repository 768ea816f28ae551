package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleConditionsValidate(t *testing.T) {
	t.Run("ExactlyOneVariant", func(t *testing.T) {
		err := RuleConditions{}.Validate(RuleTypeGeographic)
		assert.Error(t, err)

		err = RuleConditions{
			Geographic: &GeographicConditions{Countries: []string{"DE"}},
			Device:     &DeviceConditions{DeviceTypes: []string{"mobile"}},
		}.Validate(RuleTypeGeographic)
		assert.Error(t, err)
	})

	t.Run("VariantMustMatchType", func(t *testing.T) {
		c := RuleConditions{Device: &DeviceConditions{DeviceTypes: []string{"mobile"}}}
		assert.Error(t, c.Validate(RuleTypeGeographic))
		assert.NoError(t, c.Validate(RuleTypeDevice))
	})

	t.Run("GeographicNeedsAtLeastOneList", func(t *testing.T) {
		assert.Error(t, RuleConditions{Geographic: &GeographicConditions{}}.Validate(RuleTypeGeographic))
		assert.NoError(t, RuleConditions{Geographic: &GeographicConditions{Cities: []string{"Munich"}}}.Validate(RuleTypeGeographic))
	})

	t.Run("TimeBounds", func(t *testing.T) {
		valid := RuleConditions{Time: &TimeConditions{TimeRanges: []TimeRange{{Start: "09:00", End: "17:00"}}}}
		assert.NoError(t, valid.Validate(RuleTypeTime))

		badFormat := RuleConditions{Time: &TimeConditions{TimeRanges: []TimeRange{{Start: "9am", End: "17:00"}}}}
		assert.Error(t, badFormat.Validate(RuleTypeTime))

		badDay := RuleConditions{Time: &TimeConditions{DaysOfWeek: []int{7}}}
		assert.Error(t, badDay.Validate(RuleTypeTime))

		badHour := RuleConditions{Time: &TimeConditions{HoursOfDay: []int{24}}}
		assert.Error(t, badHour.Validate(RuleTypeTime))

		empty := RuleConditions{Time: &TimeConditions{}}
		assert.Error(t, empty.Validate(RuleTypeTime))
	})

	t.Run("CustomNeedsCustomVariant", func(t *testing.T) {
		assert.Error(t, RuleConditions{Geographic: &GeographicConditions{Countries: []string{"DE"}}}.Validate(RuleTypeCustom))
		assert.NoError(t, RuleConditions{Custom: &CustomConditions{}}.Validate(RuleTypeCustom))
	})

	t.Run("UnknownType", func(t *testing.T) {
		assert.Error(t, RuleConditions{Custom: &CustomConditions{}}.Validate(RuleType("weather")))
	})
}

func TestRuleConditionsScanValue(t *testing.T) {
	original := RuleConditions{
		Geographic: &GeographicConditions{Countries: []string{"DE", "AT"}, Cities: []string{"Munich"}},
	}

	v, err := original.Value()
	require.NoError(t, err)

	var restored RuleConditions
	require.NoError(t, restored.Scan(v))
	assert.Equal(t, original, restored)
	assert.Nil(t, restored.Device)

	t.Run("NilResets", func(t *testing.T) {
		require.NoError(t, restored.Scan(nil))
		assert.Equal(t, RuleConditions{}, restored)
	})

	t.Run("StringInput", func(t *testing.T) {
		var c RuleConditions
		require.NoError(t, c.Scan(`{"device":{"browsers":["chrome"]}}`))
		require.NotNil(t, c.Device)
		assert.Equal(t, []string{"chrome"}, c.Device.Browsers)
	})
}

func TestRuleTypeEnum(t *testing.T) {
	for _, rt := range []RuleType{RuleTypeGeographic, RuleTypeDevice, RuleTypeTime, RuleTypeCustom} {
		assert.True(t, rt.Valid())
	}
	assert.False(t, RuleType("weather").Valid())

	var rt RuleType
	require.NoError(t, rt.Scan("device"))
	assert.Equal(t, RuleTypeDevice, rt)
	_, err := RuleType("weather").Value()
	assert.Error(t, err)
}

func TestRuleConditionsJSONShape(t *testing.T) {
	// Only the populated variant appears on the wire
	raw, err := json.Marshal(RuleConditions{Geographic: &GeographicConditions{Countries: []string{"DE"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"geographic":{"countries":["DE"]}}`, string(raw))
}
