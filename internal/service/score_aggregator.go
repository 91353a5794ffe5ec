package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// 分数统一保留两位小数，与存储精度一致
const scorePlaces = 2

type SubmissionResult struct {
	AttemptID     string              `json:"attemptId"`
	RawScore      decimal.Decimal     `json:"rawScore"`
	Score         decimal.Decimal     `json:"score"`
	Duration      int                 `json:"duration"` // 秒
	SubmittedAt   time.Time           `json:"submittedAt"`
	GradingMethod model.GradingMethod `json:"gradingMethod"`
}

// SubmitAttempt 交卷：汇总得分、记录耗时，多次作答时按评分方式重新计算
func (s *QuizAttemptService) SubmitAttempt(ctx context.Context, attemptID string, studentID uint, now time.Time) (_ *SubmissionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.SubmitAttempt", attribute.String("attempt.id", attemptID))
	defer func() { tracing.EndSpan(span, err) }()

	var result *SubmissionResult
	err = s.Store.RunInTx(ctx, func(tx AttemptStore) error {
		attempt, err := s.activeAttempt(ctx, tx, attemptID, studentID)
		if err != nil {
			return err
		}

		// 先锁定记录再汇总，避免与并发作答交错
		if err := tx.LockActiveAttempt(ctx, attempt.ID, now); err != nil {
			return util.WrapStore("lock active attempt", err)
		}

		quiz, err := tx.GetQuizByID(ctx, attempt.QuizID)
		if err != nil {
			return util.WrapStore("get quiz", err)
		}

		raw, err := tx.SumAnswerPoints(ctx, attempt.ID)
		if err != nil {
			return util.WrapStore("sum answer points", err)
		}
		raw = raw.Round(scorePlaces)

		duration := int(now.Sub(attempt.StartTime) / time.Second)
		if duration < 0 {
			duration = 0
		}

		if err := tx.CompleteAttempt(ctx, attempt.ID, now, duration, raw); err != nil {
			return util.WrapStore("complete attempt", err)
		}

		score := raw
		if quiz.AttemptsAllowed > 1 {
			score, err = s.applyGradingMethod(ctx, tx, quiz, attempt, raw)
			if err != nil {
				return err
			}
		}

		result = &SubmissionResult{
			AttemptID:     attempt.ID,
			RawScore:      raw,
			Score:         score,
			Duration:      duration,
			SubmittedAt:   now,
			GradingMethod: quiz.GradingMethod,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptsSubmitted.WithLabelValues(string(result.GradingMethod)).Inc()
	logger.Log.Info("Quiz attempt submitted",
		zap.String("attempt_id", result.AttemptID),
		zap.Uint("student_id", studentID),
		zap.String("raw_score", result.RawScore.String()),
		zap.String("score", result.Score.String()),
		zap.Int("duration", result.Duration),
	)
	return result, nil
}

// applyGradingMethod Average 只覆盖本次提交的记录，历史记录保留原始分
func (s *QuizAttemptService) applyGradingMethod(ctx context.Context, tx AttemptStore, quiz *model.Quiz, attempt *model.Attempt, raw decimal.Decimal) (decimal.Decimal, error) {
	switch quiz.GradingMethod {
	case model.GradingAverage:
		submitted, err := tx.ListSubmittedAttempts(ctx, quiz.ID, attempt.StudentID)
		if err != nil {
			return decimal.Zero, util.WrapStore("list submitted attempts", err)
		}
		scores := make([]decimal.Decimal, 0, len(submitted)+1)
		included := false
		for _, a := range submitted {
			if a.ID == attempt.ID {
				included = true
				scores = append(scores, raw)
				continue
			}
			scores = append(scores, a.TotalScore)
		}
		if !included {
			scores = append(scores, raw)
		}
		mean := decimal.Avg(scores[0], scores[1:]...).Round(scorePlaces)
		if err := tx.OverwriteAttemptScore(ctx, attempt.ID, mean); err != nil {
			return decimal.Zero, util.WrapStore("overwrite attempt score", err)
		}
		logger.Log.Info("Attempt score recomputed as average",
			zap.String("attempt_id", attempt.ID),
			zap.Int("attempts", len(scores)),
			zap.String("mean", mean.String()),
		)
		return mean, nil
	case model.GradingHighest, model.GradingLast:
		return raw, nil
	default:
		logger.Log.Warn("Unknown grading method, keeping raw score",
			zap.Uint("quiz_id", quiz.ID),
			zap.String("grading_method", string(quiz.GradingMethod)),
		)
		return raw, nil
	}
}

type AttemptOverview struct {
	AttemptID      string              `json:"attemptId"`
	AttemptNumber  int                 `json:"attemptNumber"`
	Status         model.AttemptStatus `json:"status"`
	StartTime      time.Time           `json:"startTime"`
	CompletionTime *time.Time          `json:"completionTime,omitempty"`
	Duration       int                 `json:"duration"`
	TotalScore     decimal.Decimal     `json:"totalScore"`
}

type AttemptSummary struct {
	QuizID            uint                `json:"quizId"`
	GradingMethod     model.GradingMethod `json:"gradingMethod"`
	Attempts          []AttemptOverview   `json:"attempts"`
	EffectiveScore    *decimal.Decimal    `json:"effectiveScore,omitempty"`
	Passed            bool                `json:"passed"`
	AttemptsRemaining int                 `json:"attemptsRemaining"`
}

// EffectiveScore 按评分方式得出展示用成绩，读时计算不落库。
// Average 取最近一次提交记录上保存的平均分。
func EffectiveScore(method model.GradingMethod, submitted []model.Attempt) (decimal.Decimal, bool) {
	if len(submitted) == 0 {
		return decimal.Zero, false
	}
	latest := submitted[0]
	for _, a := range submitted[1:] {
		if a.AttemptNumber > latest.AttemptNumber {
			latest = a
		}
	}

	switch method {
	case model.GradingHighest:
		best := submitted[0].TotalScore
		for _, a := range submitted[1:] {
			if a.TotalScore.GreaterThan(best) {
				best = a.TotalScore
			}
		}
		return best, true
	case model.GradingAverage, model.GradingLast:
		return latest.TotalScore, true
	default:
		// 与交卷时一致：未知评分方式保留原始分，即以最近一次为准
		logger.Log.Warn("Unknown grading method, using latest attempt score",
			zap.String("grading_method", string(method)),
		)
		return latest.TotalScore, true
	}
}

// GetAttemptSummary 学生在某测验下的全部作答记录与最终成绩
func (s *QuizAttemptService) GetAttemptSummary(ctx context.Context, quizID, studentID uint) (_ *AttemptSummary, err error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.GetAttemptSummary", attribute.Int64("quiz.id", int64(quizID)))
	defer func() { tracing.EndSpan(span, err) }()

	quiz, err := s.Store.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, util.WrapStore("get quiz", err)
	}

	attempts, err := s.Store.ListAttempts(ctx, quizID, studentID)
	if err != nil {
		return nil, util.WrapStore("list attempts", err)
	}

	summary := &AttemptSummary{
		QuizID:        quiz.ID,
		GradingMethod: quiz.GradingMethod,
		Attempts:      make([]AttemptOverview, 0, len(attempts)),
	}

	submitted := make([]model.Attempt, 0, len(attempts))
	for _, a := range attempts {
		summary.Attempts = append(summary.Attempts, AttemptOverview{
			AttemptID:      a.ID,
			AttemptNumber:  a.AttemptNumber,
			Status:         a.Status,
			StartTime:      a.StartTime,
			CompletionTime: a.CompletionTime,
			Duration:       a.Duration,
			TotalScore:     a.TotalScore,
		})
		if a.Status == model.AttemptSubmitted {
			submitted = append(submitted, a)
		}
	}

	if score, ok := EffectiveScore(quiz.GradingMethod, submitted); ok {
		summary.EffectiveScore = &score
		summary.Passed = score.GreaterThanOrEqual(quiz.PassingScore)
	}

	if remaining := quiz.AttemptsAllowed - len(attempts); remaining > 0 {
		summary.AttemptsRemaining = remaining
	}
	return summary, nil
}
