package service

import (
	"math/rand"
	"time"
)

// QuizAttemptService 负责答题的开始、作答与提交
type QuizAttemptService struct {
	Store  AttemptStore
	Locker Locker
	// NewRand 每次开始答题时生成随机源，用于题目与选项乱序
	NewRand func() *rand.Rand
}

func NewQuizAttemptService(store AttemptStore, locker Locker) *QuizAttemptService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &QuizAttemptService{
		Store:  store,
		Locker: locker,
		NewRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}
