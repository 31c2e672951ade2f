package models

import "gorm.io/gorm"

const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

type UserReport struct {
	gorm.Model
	ReporterID     uint   `json:"reporterID" gorm:"index;not null"`
	ReportedUserID uint   `json:"reportedUserID" gorm:"index;not null"`
	PropertyID     *uint  `json:"propertyID" gorm:"index"`
	Reason         string `json:"reason" gorm:"size:64"`
	Details        string `json:"details" gorm:"type:text"`
	Status         string `json:"status" gorm:"size:16;default:open;index"`
	ResolvedBy     *uint  `json:"resolvedBy"`
	ResolutionNote string `json:"resolutionNote" gorm:"type:text"`
}
