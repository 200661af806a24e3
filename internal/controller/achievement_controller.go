package controller

import (
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/service"
	"learnquest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	GamificationService *service.GamificationService
}

func NewAchievementController(gamificationService *service.GamificationService) *AchievementController {
	return &AchievementController{GamificationService: gamificationService}
}

type CheckAchievementsRequest struct {
	UserID       uint                 `json:"user_id" binding:"required"`
	ActivityType model.ActivityType   `json:"activity_type" binding:"required"`
	ActivityData service.ActivityData `json:"activity_data"`
}

type UnlockAchievementRequest struct {
	UserID        uint `json:"user_id" binding:"required"`
	AchievementID uint `json:"achievement_id" binding:"required"`
}

// @Summary 检查成就
// @Description 根据当前学习数据解锁达成的成就，返回本次新解锁的列表
// @Tags 成就系统
// @Accept json
// @Produce json
// @Param request body CheckAchievementsRequest true "触发事件"
// @Success 200 {object} util.Response
// @Router /api/check-achievements [post]
func (c *AchievementController) CheckAchievements(ctx *gin.Context) {
	var req CheckAchievementsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !authorize(ctx, req.UserID) {
		return
	}

	unlocked, err := c.GamificationService.CheckAchievements(ctx.Request.Context(), req.UserID, req.ActivityType, req.ActivityData)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"unlocked_achievements": unlocked})
}

// @Summary 获取成就目录
// @Tags 成就系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/achievements [get]
func (c *AchievementController) ListAchievements(ctx *gin.Context) {
	achievements, err := c.GamificationService.Achievements.ListCatalog(ctx.Request.Context())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 获取用户已获得的成就
// @Tags 成就系统
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/user-achievements/{userId} [get]
func (c *AchievementController) ListUserAchievements(ctx *gin.Context) {
	userID, ok := userParam(ctx)
	if !ok {
		return
	}

	achievements, err := c.GamificationService.Achievements.ListUserAchievements(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 授予成就
// @Description 重复授予不会报错，already_earned 为 true
// @Tags 成就系统
// @Accept json
// @Produce json
// @Param request body UnlockAchievementRequest true "成就"
// @Success 200 {object} util.Response
// @Router /api/user-achievements [post]
func (c *AchievementController) UnlockAchievement(ctx *gin.Context) {
	var req UnlockAchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !authorize(ctx, req.UserID) {
		return
	}

	achievement, alreadyEarned, err := c.GamificationService.Achievements.ManualUnlock(ctx.Request.Context(), req.UserID, req.AchievementID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"achievement":    achievement,
		"already_earned": alreadyEarned,
	})
}

// @Summary 刷新成就目录缓存
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/achievements/refresh [post]
func (c *AchievementController) RefreshCatalog(ctx *gin.Context) {
	if err := c.GamificationService.Achievements.RefreshCatalog(ctx.Request.Context()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
