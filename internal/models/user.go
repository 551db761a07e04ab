package models

import "time"

const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

type User struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash   string    `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName    string    `gorm:"type:varchar(100)" json:"display_name"`
	CreditsBalance int       `gorm:"not null;default:0" json:"credits_balance"`
	Tier           string    `gorm:"type:varchar(20);not null;default:free" json:"subscription_tier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
