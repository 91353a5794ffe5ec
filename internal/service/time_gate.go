package service

import "time"

// IsWithinQuizWindow 开放时间窗口两端均包含
func IsWithinQuizWindow(now, openTime, closeTime time.Time) bool {
	return !now.Before(openTime) && !now.After(closeTime)
}

// AttemptDeadline 取 start+限时 与关闭时间中较早者；限时为 0 时只受关闭时间约束
func AttemptDeadline(attemptStart time.Time, timeLimitMinutes int, quizCloseTime time.Time) time.Time {
	if timeLimitMinutes <= 0 {
		return quizCloseTime
	}
	limit := attemptStart.Add(time.Duration(timeLimitMinutes) * time.Minute)
	if limit.Before(quizCloseTime) {
		return limit
	}
	return quizCloseTime
}

// IsWithinAttemptTimeLimit 截止时刻本身仍可作答
func IsWithinAttemptTimeLimit(now, attemptStart time.Time, timeLimitMinutes int, quizCloseTime time.Time) bool {
	return !now.After(AttemptDeadline(attemptStart, timeLimitMinutes, quizCloseTime))
}

// RemainingSeconds 距截止的剩余秒数，向下取整且不小于 0
func RemainingSeconds(now, deadline time.Time) int {
	if !now.Before(deadline) {
		return 0
	}
	return int(deadline.Sub(now) / time.Second)
}
