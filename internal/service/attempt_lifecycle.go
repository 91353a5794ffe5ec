package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type QuizInfo struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TimeLimit   int       `json:"timeLimit"` // 分钟，0 表示不限时
	CloseTime   time.Time `json:"closeTime"`
}

// ChoiceView 发给学生的选项，不包含是否正确
type ChoiceView struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

// QuestionView 发给学生的题目，不包含标准答案
type QuestionView struct {
	ID           uint               `json:"id"`
	QuestionType model.QuestionType `json:"questionType"`
	Content      string             `json:"content"`
	Points       decimal.Decimal    `json:"points"`
	Choices      []ChoiceView       `json:"choices,omitempty"`
}

// SavedAnswer 恢复答题时回显已作答内容
type SavedAnswer struct {
	QuestionID       uint      `json:"questionId"`
	SelectedChoiceID *uint     `json:"selectedChoiceId,omitempty"`
	TextAnswer       *string   `json:"textAnswer,omitempty"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

type AttemptStartResult struct {
	AttemptID        string         `json:"attemptId"`
	AttemptNumber    int            `json:"attemptNumber"`
	Resumed          bool           `json:"resumed"`
	StartTime        time.Time      `json:"startTime"`
	Deadline         time.Time      `json:"deadline"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Quiz             QuizInfo       `json:"quiz"`
	Questions        []QuestionView `json:"questions"`
	Answers          []SavedAnswer  `json:"answers,omitempty"`
}

// StartAttempt 开始或恢复一次答题。
// 已有进行中的记录时直接复用，重复请求不会产生多余的记录。
func (s *QuizAttemptService) StartAttempt(ctx context.Context, courseID, quizID, studentID uint, now time.Time) (_ *AttemptStartResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.StartAttempt",
		attribute.Int64("quiz.id", int64(quizID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer func() {
		if err != nil {
			monitoring.AttemptsStarted.WithLabelValues("rejected").Inc()
		}
		tracing.EndSpan(span, err)
	}()

	enrolled, err := s.Store.FindEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, util.WrapStore("find enrollment", err)
	}
	if !enrolled {
		return nil, util.ErrNotEnrolled
	}

	quiz, err := s.Store.GetQuiz(ctx, quizID, courseID)
	if err != nil {
		return nil, util.WrapStore("get quiz", err)
	}

	if !IsWithinQuizWindow(now, quiz.OpenTime, quiz.CloseTime) {
		return nil, util.ErrQuizClosed
	}

	// 先读题目，避免创建记录后因读题失败留下孤立的 attempt
	questions, err := s.Store.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, util.WrapStore("list questions", err)
	}

	attempt, resumed, err := s.findOrCreateAttempt(ctx, quiz, studentID, now)
	if err != nil {
		return nil, err
	}

	result := &AttemptStartResult{
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		Resumed:       resumed,
		StartTime:     attempt.StartTime,
		Quiz: QuizInfo{
			ID:          quiz.ID,
			Title:       quiz.Title,
			Description: quiz.Description,
			TimeLimit:   quiz.TimeLimitMinutes,
			CloseTime:   quiz.CloseTime,
		},
		Questions: buildQuestionViews(questions, quiz.ShuffleQuestions, quiz.ShuffleAnswers, s.NewRand()),
	}
	result.Deadline = AttemptDeadline(attempt.StartTime, quiz.TimeLimitMinutes, quiz.CloseTime)
	result.RemainingSeconds = RemainingSeconds(now, result.Deadline)

	if resumed {
		answers, err := s.Store.ListAnswers(ctx, attempt.ID)
		if err != nil {
			return nil, util.WrapStore("list answers", err)
		}
		for _, a := range answers {
			result.Answers = append(result.Answers, SavedAnswer{
				QuestionID:       a.QuestionID,
				SelectedChoiceID: a.SelectedChoiceID,
				TextAnswer:       a.TextAnswer,
				AnsweredAt:       a.AnsweredAt,
			})
		}
	}

	return result, nil
}

// findOrCreateAttempt 在 (quiz, student) 互斥区内完成"检查进行中 / 校验次数 / 创建"
func (s *QuizAttemptService) findOrCreateAttempt(ctx context.Context, quiz *model.Quiz, studentID uint, now time.Time) (*model.Attempt, bool, error) {
	unlock, err := s.Locker.Lock(ctx, attemptLockKey(quiz.ID, studentID))
	if err != nil {
		return nil, false, util.WrapStore("acquire attempt lock", err)
	}
	defer unlock()

	var (
		attempt *model.Attempt
		resumed bool
	)
	err = s.Store.RunInTx(ctx, func(tx AttemptStore) error {
		attempts, err := tx.ListAttempts(ctx, quiz.ID, studentID)
		if err != nil {
			return util.WrapStore("list attempts", err)
		}

		for i := range attempts {
			if attempts[i].Status == model.AttemptInProgress {
				attempt = &attempts[i]
				resumed = true
				return nil
			}
		}

		if len(attempts) >= quiz.AttemptsAllowed {
			return util.ErrAttemptsExhausted
		}

		next := 1
		if n := len(attempts); n > 0 {
			next = attempts[n-1].AttemptNumber + 1
		}

		attempt, err = tx.CreateAttempt(ctx, quiz.ID, studentID, next, now)
		return util.WrapStore("create attempt", err)
	})
	if err != nil {
		return nil, false, err
	}

	if resumed {
		monitoring.AttemptsStarted.WithLabelValues("resumed").Inc()
		logger.Log.Info("Quiz attempt resumed",
			zap.Uint("quiz_id", quiz.ID),
			zap.Uint("student_id", studentID),
			zap.String("attempt_id", attempt.ID),
		)
	} else {
		monitoring.AttemptsStarted.WithLabelValues("created").Inc()
		logger.Log.Info("Quiz attempt created",
			zap.Uint("quiz_id", quiz.ID),
			zap.Uint("student_id", studentID),
			zap.String("attempt_id", attempt.ID),
			zap.Int("attempt_number", attempt.AttemptNumber),
		)
	}
	return attempt, resumed, nil
}

func buildQuestionViews(questions []model.Question, shuffleQuestions, shuffleAnswers bool, rng *rand.Rand) []QuestionView {
	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		v := QuestionView{
			ID:           q.ID,
			QuestionType: q.QuestionType,
			Content:      q.Content,
			Points:       q.Points,
		}
		if q.QuestionType == model.MultipleChoice {
			v.Choices = make([]ChoiceView, len(q.Choices))
			for j, c := range q.Choices {
				v.Choices[j] = ChoiceView{ID: c.ID, Content: c.Content}
			}
			if shuffleAnswers {
				rng.Shuffle(len(v.Choices), func(a, b int) {
					v.Choices[a], v.Choices[b] = v.Choices[b], v.Choices[a]
				})
			}
		}
		views[i] = v
	}

	if shuffleQuestions {
		rng.Shuffle(len(views), func(a, b int) {
			views[a], views[b] = views[b], views[a]
		})
	}
	return views
}
