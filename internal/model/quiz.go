package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GradingMethod string

const (
	GradingHighest GradingMethod = "highest"
	GradingAverage GradingMethod = "average"
	GradingLast    GradingMethod = "last"
)

// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID         uint            `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title            string          `gorm:"size:255;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	OpenTime         time.Time       `gorm:"not null" json:"openTime"`
	CloseTime        time.Time       `gorm:"not null" json:"closeTime"`
	TimeLimitMinutes int             `gorm:"default:0" json:"timeLimitMinutes"` // 0 表示不限时
	AttemptsAllowed  int             `gorm:"default:1" json:"attemptsAllowed"`
	GradingMethod    GradingMethod   `gorm:"size:20;default:'highest'" json:"gradingMethod"`
	ShuffleQuestions bool            `gorm:"default:false" json:"shuffleQuestions"`
	ShuffleAnswers   bool            `gorm:"default:false" json:"shuffleAnswers"`
	PassingScore     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"passingScore"`
	TotalPoints      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPoints"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
