package model

import "github.com/shopspring/decimal"

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// swagger:model Question
type Question struct {
	BaseModel
	QuizID        uint            `gorm:"index;type:bigint unsigned;not null" json:"quizId"`
	QuestionType  QuestionType    `gorm:"size:50;not null" json:"questionType"`
	Content       string          `gorm:"type:text;not null" json:"content"`
	Points        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"points"`
	CorrectAnswer string          `gorm:"type:text" json:"-"` // 判断题/简答题标准答案
	Position      int             `gorm:"default:0" json:"position"`
	Choices       []Choice        `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Choice
type Choice struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
	Position   int    `gorm:"default:0" json:"position"`
}

func (Choice) TableName() string {
	return "choices"
}
