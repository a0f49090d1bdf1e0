package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileSnapshot mirrors the whole progression state of one learner.
// Rows are replaced wholesale; UpdatedAt decides which copy wins a merge.
type ProfileSnapshot struct {
	ProfileID          string         `gorm:"primaryKey;size:36" json:"profile_id"`
	Name               string         `gorm:"size:64;not null" json:"name"`
	Focus              string         `gorm:"size:16;not null" json:"focus"`
	Avatar             datatypes.JSON `json:"avatar"`
	UnlockedModules    datatypes.JSON `json:"unlocked_modules"`
	Badges             datatypes.JSON `json:"badges"`
	CompletedModules   datatypes.JSON `json:"completed_modules"`
	CompletedScenarios datatypes.JSON `json:"completed_scenarios"`
	Streak             int            `gorm:"default:0" json:"streak"`
	LastPlayed         string         `gorm:"size:10" json:"last_played"`
	OnboardingScore    int            `gorm:"default:0" json:"onboarding_score"`
	TotalPoints        int            `gorm:"default:0;index:idx_snapshot_points" json:"total_points"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// DailyRun records the challenges a learner cleared on one day.
type DailyRun struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProfileID string         `gorm:"uniqueIndex:idx_daily_profile_date;size:36;not null" json:"profile_id"`
	Date      string         `gorm:"uniqueIndex:idx_daily_profile_date;size:10;not null" json:"date"`
	Completed datatypes.JSON `json:"completed"`
	Points    int            `gorm:"default:0" json:"points"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false" json:"updated_at"`
}
