package service

import (
	"context"
	"lms_backend/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// AttemptStore 答题引擎依赖的持久化操作。
// 找不到记录时返回对应的 util 业务错误，其它失败原样返回。
type AttemptStore interface {
	FindEnrollment(ctx context.Context, studentID, courseID uint) (bool, error)
	GetQuiz(ctx context.Context, quizID, courseID uint) (*model.Quiz, error)
	GetQuizByID(ctx context.Context, quizID uint) (*model.Quiz, error)
	// ListQuestions 按 position、id 的自然顺序返回题目，选择题带选项
	ListQuestions(ctx context.Context, quizID uint) ([]model.Question, error)
	GetQuestion(ctx context.Context, quizID, questionID uint) (*model.Question, error)

	GetAttempt(ctx context.Context, attemptID string) (*model.Attempt, error)
	// ListAttempts 按 attempt_number 升序
	ListAttempts(ctx context.Context, quizID, studentID uint) ([]model.Attempt, error)
	CreateAttempt(ctx context.Context, quizID, studentID uint, attemptNumber int, startTime time.Time) (*model.Attempt, error)

	UpsertAnswer(ctx context.Context, answer *model.Answer) error
	ListAnswers(ctx context.Context, attemptID string) ([]model.Answer, error)
	SumAnswerPoints(ctx context.Context, attemptID string) (decimal.Decimal, error)

	// LockActiveAttempt 对 in_progress 的记录加写锁（刷新 updated_at），否则返回 util.ErrNoActiveAttempt
	LockActiveAttempt(ctx context.Context, attemptID string, now time.Time) error
	// CompleteAttempt 仅对 in_progress 的记录生效，否则返回 util.ErrNoActiveAttempt
	CompleteAttempt(ctx context.Context, attemptID string, completionTime time.Time, duration int, totalScore decimal.Decimal) error
	ListSubmittedAttempts(ctx context.Context, quizID, studentID uint) ([]model.Attempt, error)
	OverwriteAttemptScore(ctx context.Context, attemptID string, score decimal.Decimal) error

	// RunInTx 在同一事务内执行 fn，fn 返回错误时回滚
	RunInTx(ctx context.Context, fn func(store AttemptStore) error) error
}
