package entity

import (
	"time"
)

// Уровни доступа к конкурсу
const (
	AccessLevelNormal = "normal"
	AccessLevelVIP    = "vip"
)

// Вычисляемые статусы конкурса. В базе не хранятся.
const (
	ContestStatusUpcoming = "upcoming"
	ContestStatusOngoing  = "ongoing"
	ContestStatusEnded    = "ended"
)

// MaxQuestionsPerContest ограничивает размер конкурса
const MaxQuestionsPerContest = 50

// Contest представляет конкурс с окном проведения [StartTime, EndTime)
type Contest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:100;not null" json:"name"`
	Description      string     `gorm:"type:text;not null;default:''" json:"description"`
	StartTime        time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime          time.Time  `gorm:"not null;index" json:"end_time"`
	AccessLevel      string     `gorm:"size:10;not null;default:'normal'" json:"access_level"`
	PrizeInformation string     `gorm:"type:text;not null;default:''" json:"prize_information"`
	CreatorID        uint       `gorm:"not null;index" json:"creator_id"`
	Questions        []Question `gorm:"foreignKey:ContestID" json:"questions,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Contest) TableName() string {
	return "contests"
}

// ContestStatusAt вычисляет статус конкурса для момента now.
// Окно полуоткрытое: в момент EndTime конкурс уже завершен.
func ContestStatusAt(start, end, now time.Time) string {
	switch {
	case now.Before(start):
		return ContestStatusUpcoming
	case now.Before(end):
		return ContestStatusOngoing
	default:
		return ContestStatusEnded
	}
}

// StatusAt возвращает статус конкурса в момент now
func (c *Contest) StatusAt(now time.Time) string {
	return ContestStatusAt(c.StartTime, c.EndTime, now)
}

// HasEnded проверяет, завершен ли конкурс к моменту now
func (c *Contest) HasEnded(now time.Time) bool {
	return !now.Before(c.EndTime)
}

// IsOpenAt проверяет, можно ли присоединиться к конкурсу в момент now
func (c *Contest) IsOpenAt(now time.Time) bool {
	return c.StatusAt(now) == ContestStatusOngoing
}

// IsVIP возвращает true для конкурса только для VIP
func (c *Contest) IsVIP() bool {
	return c.AccessLevel == AccessLevelVIP
}

// CanAccess проверяет, может ли пользователь с ролью role участвовать в конкурсе
func (c *Contest) CanAccess(role string) bool {
	if !c.IsVIP() {
		return true
	}
	return role == RoleVIP || role == RoleAdmin
}

// HasValidWindow проверяет инвариант StartTime < EndTime
func (c *Contest) HasValidWindow() bool {
	return c.StartTime.Before(c.EndTime)
}

// IsValidAccessLevel проверяет, что уровень доступа известен
func IsValidAccessLevel(level string) bool {
	return level == AccessLevelNormal || level == AccessLevelVIP
}

// IsValidContestStatus проверяет значение фильтра статуса
func IsValidContestStatus(status string) bool {
	switch status {
	case ContestStatusUpcoming, ContestStatusOngoing, ContestStatusEnded:
		return true
	}
	return false
}
