package controller

import (
	"learnquest_backend/internal/service"
	"learnquest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	GamificationService *service.GamificationService
}

func NewQuizController(gamificationService *service.GamificationService) *QuizController {
	return &QuizController{GamificationService: gamificationService}
}

type SubmitQuizRequest struct {
	UserID         uint `json:"user_id" binding:"required"`
	ModuleID       uint `json:"module_id" binding:"required"`
	Score          *int `json:"score" binding:"required"`
	TotalQuestions int  `json:"total_questions"`
	TimeSpent      int  `json:"time_spent"`
}

// @Summary 提交测验结果
// @Description 记录测验成绩，更新模块进度并检查成就
// @Tags 测验
// @Accept json
// @Produce json
// @Param request body SubmitQuizRequest true "测验结果"
// @Success 201 {object} util.Response
// @Router /api/quiz-results [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !authorize(ctx, req.UserID) {
		return
	}

	outcome, err := c.GamificationService.OnQuizSubmitted(ctx.Request.Context(), service.QuizSubmission{
		UserID:         req.UserID,
		ModuleID:       req.ModuleID,
		Score:          *req.Score,
		TotalQuestions: req.TotalQuestions,
		TimeSpent:      req.TimeSpent,
	})
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, outcome)
}

// @Summary 获取测验记录
// @Tags 测验
// @Produce json
// @Param userId path int true "用户ID"
// @Param module_id query int false "模块ID"
// @Success 200 {object} util.Response
// @Router /api/quiz-results/{userId} [get]
func (c *QuizController) ListQuizResults(ctx *gin.Context) {
	userID, ok := userParam(ctx)
	if !ok {
		return
	}

	var moduleID uint
	if raw := ctx.Query("module_id"); raw != "" {
		id, err := util.ParseID(raw)
		if err != nil {
			util.BadRequest(ctx, "Invalid module id")
			return
		}
		moduleID = id
	}

	results, err := c.GamificationService.ListQuizResults(ctx.Request.Context(), userID, moduleID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, results)
}
