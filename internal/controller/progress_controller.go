package controller

import (
	"learnquest_backend/internal/service"
	"learnquest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	GamificationService *service.GamificationService
}

func NewProgressController(gamificationService *service.GamificationService) *ProgressController {
	return &ProgressController{GamificationService: gamificationService}
}

type UpdateProgressRequest struct {
	UserID               uint `json:"user_id" binding:"required"`
	ModuleID             uint `json:"module_id" binding:"required"`
	CompletionPercentage *int `json:"completion_percentage" binding:"required"`
}

// @Summary 更新学习进度
// @Description 完成度只增不减，首次达到 100% 时检查成就
// @Tags 学习进度
// @Accept json
// @Produce json
// @Param request body UpdateProgressRequest true "进度"
// @Success 200 {object} util.Response
// @Router /api/user-progress [post]
func (c *ProgressController) UpdateProgress(ctx *gin.Context) {
	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !authorize(ctx, req.UserID) {
		return
	}

	outcome, err := c.GamificationService.OnProgressUpdate(ctx.Request.Context(), req.UserID, req.ModuleID, *req.CompletionPercentage)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, outcome)
}

// @Summary 获取学习进度
// @Tags 学习进度
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/user-progress/{userId} [get]
func (c *ProgressController) ListUserProgress(ctx *gin.Context) {
	userID, ok := userParam(ctx)
	if !ok {
		return
	}

	progress, err := c.GamificationService.Progress.ListUserProgress(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}
