package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// swagger:model Attempt
type Attempt struct {
	UUIDBase
	QuizID         uint            `gorm:"uniqueIndex:idx_attempt_quiz_student_number;index:idx_attempt_quiz_student;type:bigint unsigned;not null" json:"quizId"`
	StudentID      uint            `gorm:"uniqueIndex:idx_attempt_quiz_student_number;index:idx_attempt_quiz_student;type:bigint unsigned;not null" json:"studentId"`
	AttemptNumber  int             `gorm:"uniqueIndex:idx_attempt_quiz_student_number;not null" json:"attemptNumber"`
	Status         AttemptStatus   `gorm:"size:20;not null;default:'in_progress'" json:"status"`
	StartTime      time.Time       `gorm:"not null" json:"startTime"`
	CompletionTime *time.Time      `json:"completionTime,omitempty"`
	Duration       int             `gorm:"default:0" json:"duration"` // 秒
	TotalScore     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalScore"`
}

func (Attempt) TableName() string {
	return "attempts"
}
