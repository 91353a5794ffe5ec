package controller

import (
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type QuizAttemptController struct {
	Service *service.QuizAttemptService
	// Now 便于测试注入时间
	Now func() time.Time
}

func NewQuizAttemptController(svc *service.QuizAttemptService) *QuizAttemptController {
	return &QuizAttemptController{Service: svc, Now: time.Now}
}

// @Summary 开始或恢复答题
// @Tags 测验模块
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=service.AttemptStartResult}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /courses/{courseId}/quizzes/{quizId}/attempts [post]
func (c *QuizAttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := util.ParseID(ctx.Param("courseId"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	quizID, err := util.ParseID(ctx.Param("quizId"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	result, err := c.Service.StartAttempt(ctx.Request.Context(), courseID, quizID, user.UserID, c.Now())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if result.Resumed {
		util.Success(ctx, result)
		return
	}
	util.Created(ctx, result)
}

type SubmitAnswerReq struct {
	QuestionType model.QuestionType `json:"questionType" binding:"required"`
	ChoiceID     *uint              `json:"choiceId"`
	Value        *string            `json:"value"`
}

// @Summary 作答单题（重复提交覆盖）
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "作答ID"
// @Param questionId path int true "题目ID"
// @Param body body SubmitAnswerReq true "答案"
// @Success 200 {object} util.Response{data=service.GradedAnswer}
// @Failure 409 {object} util.Response
// @Router /attempts/{attemptId}/answers/{questionId} [put]
func (c *QuizAttemptController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req SubmitAnswerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := service.NewAnswerInput(req.QuestionType, req.ChoiceID, req.Value)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	graded, err := c.Service.SubmitAnswer(ctx.Request.Context(), ctx.Param("attemptId"), user.UserID, questionID, answer, c.Now())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, graded)
}

// @Summary 交卷
// @Tags 测验模块
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "作答ID"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 404 {object} util.Response
// @Router /attempts/{attemptId}/submit [post]
func (c *QuizAttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.SubmitAttempt(ctx.Request.Context(), ctx.Param("attemptId"), user.UserID, c.Now())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取本人在测验下的作答记录与成绩
// @Tags 测验模块
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Router /quizzes/{quizId}/attempts [get]
func (c *QuizAttemptController) GetAttemptSummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quizID, err := util.ParseID(ctx.Param("quizId"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	summary, err := c.Service.GetAttemptSummary(ctx.Request.Context(), quizID, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}
