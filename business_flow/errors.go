// Package businessflow contains the business logic for dynamic content resolution.
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Lookup errors
	ErrCodeNotFound     = errors.New("code not found")
	ErrVersionNotFound  = errors.New("content version not found")
	ErrTestNotFound     = errors.New("ab test not found")
	ErrRuleNotFound     = errors.New("redirect rule not found")
	ErrScheduleNotFound = errors.New("content schedule not found")

	// Content version errors
	ErrContentRequired         = errors.New("content payload is required")
	ErrVersionReferencedByTest = errors.New("version is referenced by a running ab test")

	// A/B test errors
	ErrTestNameRequired       = errors.New("test name is required")
	ErrVariantsNotDistinct    = errors.New("variant versions must be distinct")
	ErrVariantNotOwned        = errors.New("variant version does not belong to the code")
	ErrTrafficSplitOutOfRange = errors.New("traffic split must be between 0 and 100")
	ErrTestNotDraft           = errors.New("only draft tests can be started")
	ErrTestRunning            = errors.New("running tests cannot be deleted")
	ErrTrafficSplitLocked     = errors.New("traffic split cannot change while the test is running")
	ErrAnotherTestRunning     = errors.New("another test is already running for this code")
	ErrInvalidWinnerVariant   = errors.New("winner variant must be A or B")

	// Redirect rule errors
	ErrRuleNameRequired     = errors.New("rule name is required")
	ErrInvalidRuleType      = errors.New("invalid rule type")
	ErrInvalidConditions    = errors.New("rule conditions are invalid")
	ErrTargetVersionMissing = errors.New("target version does not belong to the code")

	// Content schedule errors
	ErrScheduleNameRequired = errors.New("schedule name is required")
	ErrStartTimeRequired    = errors.New("start time is required")
	ErrInvalidRepeatPattern = errors.New("invalid repeat pattern")
	ErrInvalidTimezone      = errors.New("invalid timezone")
	ErrRepeatDaysRequired   = errors.New("repeat days are required for recurring schedules")

	// Resolution errors
	ErrNoActiveContent = errors.New("no active content version found")
)

// ValidationError signals malformed or missing input
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(code, message string, err error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFoundError signals a missing referenced entity
type NotFoundError struct {
	Code    string
	Message string
	Err     error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(code, message string, err error) *NotFoundError {
	return &NotFoundError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BusinessError signals a valid request the current state disallows
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks whether any error in the chain is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks whether any error in the chain is a NotFoundError
func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsBusinessError checks whether any error in the chain is a BusinessError
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

func IsCodeNotFound(err error) bool {
	return errors.Is(err, ErrCodeNotFound)
}

func IsVersionNotFound(err error) bool {
	return errors.Is(err, ErrVersionNotFound)
}

func IsTestNotFound(err error) bool {
	return errors.Is(err, ErrTestNotFound)
}

func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}

func IsContentRequired(err error) bool {
	return errors.Is(err, ErrContentRequired)
}

func IsVersionReferencedByTest(err error) bool {
	return errors.Is(err, ErrVersionReferencedByTest)
}

func IsTestNotDraft(err error) bool {
	return errors.Is(err, ErrTestNotDraft)
}

func IsTestRunning(err error) bool {
	return errors.Is(err, ErrTestRunning)
}

func IsTrafficSplitLocked(err error) bool {
	return errors.Is(err, ErrTrafficSplitLocked)
}

func IsAnotherTestRunning(err error) bool {
	return errors.Is(err, ErrAnotherTestRunning)
}

func IsNoActiveContent(err error) bool {
	return errors.Is(err, ErrNoActiveContent)
}
