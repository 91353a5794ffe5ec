package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Answer 每个 (attempt, question) 仅一行，重复作答覆盖
type Answer struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AttemptID        string          `gorm:"uniqueIndex:idx_answer_attempt_question;type:varchar(36);not null" json:"attemptId"`
	QuestionID       uint            `gorm:"uniqueIndex:idx_answer_attempt_question;type:bigint unsigned;not null" json:"questionId"`
	SelectedChoiceID *uint           `gorm:"type:bigint unsigned" json:"selectedChoiceId,omitempty"`
	TextAnswer       *string         `gorm:"type:text" json:"textAnswer,omitempty"`
	IsCorrect        bool            `gorm:"default:false" json:"isCorrect"`
	PointsEarned     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"pointsEarned"`
	AnsweredAt       time.Time       `gorm:"not null" json:"answeredAt"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (Answer) TableName() string {
	return "answers"
}
