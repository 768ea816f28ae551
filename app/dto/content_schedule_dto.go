package dto

import "time"

// CreateContentScheduleRequest defines input for creating a content schedule.
// RepeatDays holds weekday numbers (0 = Sunday) and is required for
// recurring patterns.
type CreateContentScheduleRequest struct {
	CodeUID       string     `json:"code_uid" validate:"required"`
	Version       string     `json:"version" validate:"required,uuid4"`
	ScheduleName  string     `json:"schedule_name" validate:"required,min=1,max=255"`
	StartTime     time.Time  `json:"start_time" validate:"required"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	RepeatPattern *string    `json:"repeat_pattern,omitempty" validate:"omitempty,oneof=none daily weekly monthly"`
	RepeatDays    []int      `json:"repeat_days,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	Timezone      *string    `json:"timezone,omitempty" validate:"omitempty,max=64"`
	IsActive      *bool      `json:"is_active,omitempty"`
}

// UpdateContentScheduleRequest defines the patchable fields of a schedule
type UpdateContentScheduleRequest struct {
	ScheduleName  *string    `json:"schedule_name,omitempty" validate:"omitempty,min=1,max=255"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	RepeatPattern *string    `json:"repeat_pattern,omitempty" validate:"omitempty,oneof=none daily weekly monthly"`
	RepeatDays    []int      `json:"repeat_days,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	Timezone      *string    `json:"timezone,omitempty" validate:"omitempty,max=64"`
	IsActive      *bool      `json:"is_active,omitempty"`
}

// ContentScheduleResponse is the public representation of a content schedule
type ContentScheduleResponse struct {
	UUID          string     `json:"uuid"`
	CodeUID       string     `json:"code_uid"`
	Version       string     `json:"version"`
	ScheduleName  string     `json:"schedule_name"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	RepeatPattern string     `json:"repeat_pattern"`
	RepeatDays    []int      `json:"repeat_days,omitempty"`
	Timezone      string     `json:"timezone"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     string     `json:"created_at"`
}
