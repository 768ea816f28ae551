package dto

// CreateABTestRequest defines input for creating an A/B test in draft state.
// Variant UUIDs must reference distinct content versions of the same code.
// TrafficSplit is the percentage routed to variant A and defaults to 50.
type CreateABTestRequest struct {
	CodeUID      string `json:"code_uid" validate:"required"`
	TestName     string `json:"test_name" validate:"required,min=1,max=255"`
	VariantA     string `json:"variant_a" validate:"required,uuid4"`
	VariantB     string `json:"variant_b" validate:"required,uuid4"`
	TrafficSplit *int   `json:"traffic_split,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// UpdateABTestRequest defines the patchable fields of a test. TrafficSplit
// cannot change while the test is running.
type UpdateABTestRequest struct {
	TestName     *string `json:"test_name,omitempty" validate:"omitempty,min=1,max=255"`
	TrafficSplit *int    `json:"traffic_split,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// CompleteABTestRequest optionally records the winning variant
type CompleteABTestRequest struct {
	WinnerVariant *string `json:"winner_variant,omitempty" validate:"omitempty,oneof=A B"`
}

// ABTestResponse is the public representation of an A/B test
type ABTestResponse struct {
	UUID          string  `json:"uuid"`
	CodeUID       string  `json:"code_uid"`
	TestName      string  `json:"test_name"`
	VariantA      string  `json:"variant_a"`
	VariantB      string  `json:"variant_b"`
	TrafficSplit  int     `json:"traffic_split"`
	Status        string  `json:"status"`
	WinnerVariant *string `json:"winner_variant,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
