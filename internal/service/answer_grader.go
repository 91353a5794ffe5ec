package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AnswerInput 学生提交的答案，具体类型见下方三种实现
type AnswerInput interface {
	questionType() model.QuestionType
}

type MultipleChoiceAnswer struct {
	ChoiceID uint
}

type TrueFalseAnswer struct {
	Value string
}

type ShortAnswerAnswer struct {
	Value string
}

func (MultipleChoiceAnswer) questionType() model.QuestionType { return model.MultipleChoice }
func (TrueFalseAnswer) questionType() model.QuestionType      { return model.TrueFalse }
func (ShortAnswerAnswer) questionType() model.QuestionType    { return model.ShortAnswer }

// NewAnswerInput 根据请求里声明的题型构造答案
func NewAnswerInput(questionType model.QuestionType, choiceID *uint, value *string) (AnswerInput, error) {
	switch questionType {
	case model.MultipleChoice:
		if choiceID == nil {
			return nil, util.ErrInvalidAnswer
		}
		return MultipleChoiceAnswer{ChoiceID: *choiceID}, nil
	case model.TrueFalse:
		if value == nil {
			return nil, util.ErrInvalidAnswer
		}
		return TrueFalseAnswer{Value: *value}, nil
	case model.ShortAnswer:
		if value == nil {
			return nil, util.ErrInvalidAnswer
		}
		return ShortAnswerAnswer{Value: *value}, nil
	default:
		return nil, util.ErrInvalidAnswer
	}
}

// GradeResult 单题评分结果，同时携带需要落库的答案内容
type GradeResult struct {
	IsCorrect        bool
	PointsEarned     decimal.Decimal
	SelectedChoiceID *uint
	TextAnswer       *string
}

// GradeAnswer 按题型评分。只做完全匹配，答对得满分，否则 0 分。
func GradeAnswer(q *model.Question, answer AnswerInput) (GradeResult, error) {
	switch q.QuestionType {
	case model.MultipleChoice, model.TrueFalse, model.ShortAnswer:
	default:
		return GradeResult{}, util.ErrInvalidQuestionType
	}
	if answer == nil || answer.questionType() != q.QuestionType {
		return GradeResult{}, util.ErrInvalidAnswer
	}

	var res GradeResult
	switch a := answer.(type) {
	case MultipleChoiceAnswer:
		choiceID := a.ChoiceID
		res.SelectedChoiceID = &choiceID
		if correct, ok := singleCorrectChoice(q.Choices); ok {
			res.IsCorrect = correct == a.ChoiceID
		}
	case TrueFalseAnswer:
		value := a.Value
		res.TextAnswer = &value
		res.IsCorrect = strings.EqualFold(a.Value, q.CorrectAnswer)
	case ShortAnswerAnswer:
		value := a.Value
		res.TextAnswer = &value
		res.IsCorrect = strings.EqualFold(strings.TrimSpace(a.Value), strings.TrimSpace(q.CorrectAnswer))
	default:
		return GradeResult{}, util.ErrInvalidAnswer
	}

	res.PointsEarned = decimal.Zero
	if res.IsCorrect && q.Points.IsPositive() {
		res.PointsEarned = q.Points
	}
	return res, nil
}

// singleCorrectChoice 只有恰好一个正确选项时才可判对
func singleCorrectChoice(choices []model.Choice) (uint, bool) {
	var id uint
	found := 0
	for _, c := range choices {
		if c.IsCorrect {
			id = c.ID
			found++
		}
	}
	return id, found == 1
}

type GradedAnswer struct {
	QuestionID   uint            `json:"questionId"`
	IsCorrect    bool            `json:"isCorrect"`
	PointsEarned decimal.Decimal `json:"pointsEarned"`
	AnsweredAt   time.Time       `json:"answeredAt"`
}

// SubmitAnswer 评分并写入（覆盖）某题答案
func (s *QuizAttemptService) SubmitAnswer(ctx context.Context, attemptID string, studentID, questionID uint, answer AnswerInput, now time.Time) (_ *GradedAnswer, err error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.SubmitAnswer",
		attribute.String("attempt.id", attemptID),
		attribute.Int64("question.id", int64(questionID)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	var (
		question *model.Question
		res      GradeResult
	)
	err = s.Store.RunInTx(ctx, func(tx AttemptStore) error {
		attempt, err := s.activeAttempt(ctx, tx, attemptID, studentID)
		if err != nil {
			return err
		}

		quiz, err := tx.GetQuizByID(ctx, attempt.QuizID)
		if err != nil {
			return util.WrapStore("get quiz", err)
		}

		if !IsWithinQuizWindow(now, quiz.OpenTime, quiz.CloseTime) ||
			!IsWithinAttemptTimeLimit(now, attempt.StartTime, quiz.TimeLimitMinutes, quiz.CloseTime) {
			return util.ErrTimeExceeded
		}

		question, err = tx.GetQuestion(ctx, quiz.ID, questionID)
		if err != nil {
			return util.WrapStore("get question", err)
		}

		res, err = GradeAnswer(question, answer)
		if err != nil {
			return err
		}

		// 写入前再次确认仍在作答中，与交卷互斥
		if err := tx.LockActiveAttempt(ctx, attempt.ID, now); err != nil {
			return util.WrapStore("lock active attempt", err)
		}

		row := &model.Answer{
			AttemptID:        attempt.ID,
			QuestionID:       question.ID,
			SelectedChoiceID: res.SelectedChoiceID,
			TextAnswer:       res.TextAnswer,
			IsCorrect:        res.IsCorrect,
			PointsEarned:     res.PointsEarned,
			AnsweredAt:       now,
		}
		return util.WrapStore("upsert answer", tx.UpsertAnswer(ctx, row))
	})
	if err != nil {
		return nil, err
	}

	monitoring.AnswersGraded.WithLabelValues(string(question.QuestionType), strconv.FormatBool(res.IsCorrect)).Inc()
	logger.Log.Debug("Answer graded",
		zap.String("attempt_id", attemptID),
		zap.Uint("question_id", question.ID),
		zap.Bool("correct", res.IsCorrect),
	)

	return &GradedAnswer{
		QuestionID:   question.ID,
		IsCorrect:    res.IsCorrect,
		PointsEarned: res.PointsEarned,
		AnsweredAt:   now,
	}, nil
}

// activeAttempt 校验归属与状态；他人的记录与不存在同样处理
func (s *QuizAttemptService) activeAttempt(ctx context.Context, store AttemptStore, attemptID string, studentID uint) (*model.Attempt, error) {
	attempt, err := store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, util.WrapStore("get attempt", err)
	}
	if attempt.StudentID != studentID || attempt.Status != model.AttemptInProgress {
		return nil, util.ErrNoActiveAttempt
	}
	return attempt, nil
}
