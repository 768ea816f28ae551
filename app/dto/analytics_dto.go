package dto

import "github.com/amirphl/Yata-no-Kagami/models"

// CodeStatsResponse wraps the aggregated analytics of one code
type CodeStatsResponse struct {
	CodeUID string           `json:"code_uid"`
	Stats   models.CodeStats `json:"stats"`
}
