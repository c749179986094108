package entity

import (
	"time"
)

// Prize - приз за место Rank в конкурсе. Пара (ContestID, Rank) уникальна.
type Prize struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ContestID    uint       `gorm:"not null;uniqueIndex:idx_prizes_contest_rank" json:"contest_id"`
	UserID       *uint      `gorm:"index" json:"user_id"`
	Rank         int        `gorm:"not null;uniqueIndex:idx_prizes_contest_rank" json:"rank"`
	PrizeDetails string     `gorm:"type:text;not null" json:"prize_details"`
	Awarded      bool       `gorm:"not null;default:false" json:"awarded"`
	AwardedAt    *time.Time `json:"awarded_at"`
	Claimed      bool       `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt    *time.Time `json:"claimed_at"`
	Contest      *Contest   `gorm:"foreignKey:ContestID" json:"contest,omitempty"`
	User         *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Prize) TableName() string {
	return "prizes"
}

// Award назначает приз победителю. Повторно не вызывается.
func (p *Prize) Award(userID uint, at time.Time) {
	p.UserID = &userID
	p.Awarded = true
	p.AwardedAt = &at
}

// IsWonBy проверяет, что приз присужден пользователю userID
func (p *Prize) IsWonBy(userID uint) bool {
	return p.Awarded && p.UserID != nil && *p.UserID == userID
}
