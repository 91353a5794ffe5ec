package util

import (
	"errors"
	"fmt"
)

// 答题引擎向调用方返回的错误类型，均不会自动重试
var (
	ErrNotEnrolled         = errors.New("student is not enrolled in the course")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuizClosed          = errors.New("quiz is not open")
	ErrAttemptsExhausted   = errors.New("no attempts remaining")
	ErrNoActiveAttempt     = errors.New("no active attempt")
	ErrTimeExceeded        = errors.New("time limit exceeded")
	ErrQuestionNotFound    = errors.New("question not found in quiz")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrInvalidAnswer       = errors.New("answer does not match question type")
)

// StoreError 存储层失败（连接、约束冲突等），原样透传底层错误
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

var kinds = []error{
	ErrNotEnrolled,
	ErrQuizNotFound,
	ErrQuizClosed,
	ErrAttemptsExhausted,
	ErrNoActiveAttempt,
	ErrTimeExceeded,
	ErrQuestionNotFound,
	ErrInvalidQuestionType,
	ErrInvalidAnswer,
}

// IsKind 判断是否为已知的业务错误
func IsKind(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// WrapStore 业务错误原样返回，其余包装为 StoreError
func WrapStore(op string, err error) error {
	if err == nil || IsKind(err) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
