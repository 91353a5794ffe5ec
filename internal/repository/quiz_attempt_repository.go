package repository

import (
	"context"
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuizAttemptRepository 基于 gorm 的答题存储
type QuizAttemptRepository struct {
	DB *gorm.DB
}

var _ service.AttemptStore = (*QuizAttemptRepository)(nil)

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) RunInTx(ctx context.Context, fn func(store service.AttemptStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&QuizAttemptRepository{DB: tx})
	})
}

func (r *QuizAttemptRepository) FindEnrollment(ctx context.Context, studentID, courseID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *QuizAttemptRepository) GetQuiz(ctx context.Context, quizID, courseID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).First(&quiz, "id = ? AND course_id = ?", quizID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizAttemptRepository) GetQuizByID(ctx context.Context, quizID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).First(&quiz, quizID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func orderedChoices(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func (r *QuizAttemptRepository) ListQuestions(ctx context.Context, quizID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Choices", orderedChoices).
		Where("quiz_id = ?", quizID).
		Order("position asc, id asc").
		Find(&qs).Error
	return qs, err
}

func (r *QuizAttemptRepository) GetQuestion(ctx context.Context, quizID, questionID uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).
		Preload("Choices", orderedChoices).
		First(&q, "id = ? AND quiz_id = ?", questionID, quizID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizAttemptRepository) GetAttempt(ctx context.Context, attemptID string) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.WithContext(ctx).First(&a, "id = ?", attemptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoActiveAttempt
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *QuizAttemptRepository) ListAttempts(ctx context.Context, quizID, studentID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("attempt_number asc").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) CreateAttempt(ctx context.Context, quizID, studentID uint, attemptNumber int, startTime time.Time) (*model.Attempt, error) {
	attempt := &model.Attempt{
		QuizID:        quizID,
		StudentID:     studentID,
		AttemptNumber: attemptNumber,
		Status:        model.AttemptInProgress,
		StartTime:     startTime,
		TotalScore:    decimal.Zero,
	}
	if err := r.DB.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

// UpsertAnswer 依赖 (attempt_id, question_id) 唯一索引，冲突时覆盖作答内容
func (r *QuizAttemptRepository) UpsertAnswer(ctx context.Context, answer *model.Answer) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_choice_id",
			"text_answer",
			"is_correct",
			"points_earned",
			"answered_at",
			"updated_at",
		}),
	}).Create(answer).Error
}

func (r *QuizAttemptRepository) ListAnswers(ctx context.Context, attemptID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id asc").
		Find(&answers).Error
	return answers, err
}

func (r *QuizAttemptRepository) SumAnswerPoints(ctx context.Context, attemptID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.DB.WithContext(ctx).Model(&model.Answer{}).
		Select("SUM(points_earned)").
		Where("attempt_id = ?", attemptID).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// LockActiveAttempt 条件更新会持有行锁直到事务结束，作答与交卷因此串行
func (r *QuizAttemptRepository) LockActiveAttempt(ctx context.Context, attemptID string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
		Update("updated_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrNoActiveAttempt
	}
	return nil
}

func (r *QuizAttemptRepository) CompleteAttempt(ctx context.Context, attemptID string, completionTime time.Time, duration int, totalScore decimal.Decimal) error {
	res := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":          model.AttemptSubmitted,
			"completion_time": completionTime,
			"duration":        duration,
			"total_score":     totalScore,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrNoActiveAttempt
	}
	return nil
}

func (r *QuizAttemptRepository) ListSubmittedAttempts(ctx context.Context, quizID, studentID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, model.AttemptSubmitted).
		Order("attempt_number asc").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) OverwriteAttemptScore(ctx context.Context, attemptID string, score decimal.Decimal) error {
	return r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ?", attemptID).
		Update("total_score", score).Error
}
