package controller

import (
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/service"
	"learnquest_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type StreakController struct {
	GamificationService *service.GamificationService
}

func NewStreakController(gamificationService *service.GamificationService) *StreakController {
	return &StreakController{GamificationService: gamificationService}
}

type StreakActivityRequest struct {
	UserID       uint               `json:"user_id" binding:"required"`
	ActivityType model.ActivityType `json:"activity_type" binding:"required"`
	// Date 可选，格式 2006-01-02，缺省为服务器当天
	Date string `json:"date"`
}

// @Summary 获取连续学习状态
// @Description 首次查询时自动创建
// @Tags 连续学习
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/user-streak/{userId} [get]
func (c *StreakController) GetStreak(ctx *gin.Context) {
	userID, ok := userParam(ctx)
	if !ok {
		return
	}

	streak, err := c.GamificationService.Streaks.GetStreak(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, streak)
}

// @Summary 上报学习活动
// @Description quiz_attempt / quiz_completed / quiz_missed / learning_activity
// @Tags 连续学习
// @Accept json
// @Produce json
// @Param request body StreakActivityRequest true "活动"
// @Success 200 {object} util.Response
// @Router /api/user-streak [post]
func (c *StreakController) RecordActivity(ctx *gin.Context) {
	var req StreakActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !authorize(ctx, req.UserID) {
		return
	}

	var today time.Time
	if req.Date != "" {
		d, err := time.Parse(util.DateFormat, req.Date)
		if err != nil {
			util.BadRequest(ctx, "Invalid date, expected "+util.DateFormat)
			return
		}
		today = d
	}

	outcome, err := c.GamificationService.OnDailyActivity(ctx.Request.Context(), req.UserID, req.ActivityType, today)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, outcome)
}
