package models

import "time"

const (
	ModlogActionKick  = "kick"
	ModlogActionBan   = "ban"
	ModlogActionUnban = "unban"
	ModlogActionClear = "clear"
)

// ModerationCase is one row of the moderation case log
type ModerationCase struct {
	ID          uint      `gorm:"primaryKey"`
	Reference   string    `gorm:"uniqueIndex;size:36"`
	GuildID     string    `gorm:"index;not null"`
	Action      string    `gorm:"size:16;not null"`
	TargetID    string    `gorm:"index"`
	ModeratorID string    `gorm:"not null"`
	Reason      string
	Count       int
	CreatedAt   time.Time `gorm:"index"`
}

func (ModerationCase) TableName() string {
	return "moderation_cases"
}
