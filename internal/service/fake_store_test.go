package service

import (
	"context"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type answerKey struct {
	attemptID  string
	questionID uint
}

// fakeStore 内存实现，每个方法单独加锁；互斥由 Locker 负责
type fakeStore struct {
	mu sync.Mutex

	enrollments map[[2]uint]bool // {studentID, courseID}
	quizzes     map[uint]model.Quiz
	questions   map[uint][]model.Question
	attempts    map[string]*model.Attempt
	answers     map[answerKey]model.Answer

	nextAttempt int
	createCalls int
	upsertCalls int

	failOn map[string]error

	// beforeGetQuestion 在 GetQuestion 返回前执行（不持有锁），用于插入并发操作
	beforeGetQuestion func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		enrollments: make(map[[2]uint]bool),
		quizzes:     make(map[uint]model.Quiz),
		questions:   make(map[uint][]model.Question),
		attempts:    make(map[string]*model.Attempt),
		answers:     make(map[answerKey]model.Answer),
		failOn:      make(map[string]error),
	}
}

func (f *fakeStore) enroll(studentID, courseID uint) {
	f.enrollments[[2]uint{studentID, courseID}] = true
}

func (f *fakeStore) addQuiz(q model.Quiz, questions ...model.Question) {
	f.quizzes[q.ID] = q
	f.questions[q.ID] = questions
}

func (f *fakeStore) fail(op string) error {
	return f.failOn[op]
}

func (f *fakeStore) FindEnrollment(_ context.Context, studentID, courseID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("FindEnrollment"); err != nil {
		return false, err
	}
	return f.enrollments[[2]uint{studentID, courseID}], nil
}

func (f *fakeStore) GetQuiz(_ context.Context, quizID, courseID uint) (*model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[quizID]
	if !ok || q.CourseID != courseID {
		return nil, util.ErrQuizNotFound
	}
	return &q, nil
}

func (f *fakeStore) GetQuizByID(_ context.Context, quizID uint) (*model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[quizID]
	if !ok {
		return nil, util.ErrQuizNotFound
	}
	return &q, nil
}

func (f *fakeStore) ListQuestions(_ context.Context, quizID uint) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListQuestions"); err != nil {
		return nil, err
	}
	out := make([]model.Question, len(f.questions[quizID]))
	copy(out, f.questions[quizID])
	return out, nil
}

func (f *fakeStore) GetQuestion(_ context.Context, quizID, questionID uint) (*model.Question, error) {
	if f.beforeGetQuestion != nil {
		f.beforeGetQuestion()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions[quizID] {
		if q.ID == questionID {
			q := q
			return &q, nil
		}
	}
	return nil, util.ErrQuestionNotFound
}

func (f *fakeStore) GetAttempt(_ context.Context, attemptID string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok {
		return nil, util.ErrNoActiveAttempt
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) listAttemptsLocked(quizID, studentID uint, status model.AttemptStatus) []model.Attempt {
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.QuizID != quizID || a.StudentID != studentID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out
}

func (f *fakeStore) ListAttempts(_ context.Context, quizID, studentID uint) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listAttemptsLocked(quizID, studentID, ""), nil
}

func (f *fakeStore) CreateAttempt(_ context.Context, quizID, studentID uint, attemptNumber int, startTime time.Time) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateAttempt"); err != nil {
		return nil, err
	}
	for _, a := range f.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && a.AttemptNumber == attemptNumber {
			return nil, fmt.Errorf("duplicate attempt number %d", attemptNumber)
		}
	}
	// 模拟慢写入，放大并发窗口
	time.Sleep(time.Millisecond)

	f.nextAttempt++
	f.createCalls++
	a := &model.Attempt{
		QuizID:        quizID,
		StudentID:     studentID,
		AttemptNumber: attemptNumber,
		Status:        model.AttemptInProgress,
		StartTime:     startTime,
		TotalScore:    decimal.Zero,
	}
	a.ID = fmt.Sprintf("attempt-%d", f.nextAttempt)
	f.attempts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeStore) UpsertAnswer(_ context.Context, answer *model.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	f.answers[answerKey{answer.AttemptID, answer.QuestionID}] = *answer
	return nil
}

func (f *fakeStore) ListAnswers(_ context.Context, attemptID string) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Answer
	for k, a := range f.answers {
		if k.attemptID == attemptID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeStore) SumAnswerPoints(_ context.Context, attemptID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for k, a := range f.answers {
		if k.attemptID == attemptID {
			sum = sum.Add(a.PointsEarned)
		}
	}
	return sum, nil
}

func (f *fakeStore) LockActiveAttempt(_ context.Context, attemptID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok || a.Status != model.AttemptInProgress {
		return util.ErrNoActiveAttempt
	}
	a.UpdatedAt = now
	return nil
}

func (f *fakeStore) CompleteAttempt(_ context.Context, attemptID string, completionTime time.Time, duration int, totalScore decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok || a.Status != model.AttemptInProgress {
		return util.ErrNoActiveAttempt
	}
	t := completionTime
	a.Status = model.AttemptSubmitted
	a.CompletionTime = &t
	a.Duration = duration
	a.TotalScore = totalScore
	return nil
}

func (f *fakeStore) ListSubmittedAttempts(_ context.Context, quizID, studentID uint) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listAttemptsLocked(quizID, studentID, model.AttemptSubmitted), nil
}

func (f *fakeStore) OverwriteAttemptScore(_ context.Context, attemptID string, score decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("OverwriteAttemptScore"); err != nil {
		return err
	}
	if a, ok := f.attempts[attemptID]; ok {
		a.TotalScore = score
	}
	return nil
}

func (f *fakeStore) RunInTx(_ context.Context, fn func(store AttemptStore) error) error {
	return fn(f)
}

func (f *fakeStore) attempt(id string) model.Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.attempts[id]
}
