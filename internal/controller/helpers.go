package controller

import (
	"learnquest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// userParam 解析路径中的 userId 并检查调用方权限，失败时已写入响应
func userParam(ctx *gin.Context) (uint, bool) {
	userID, err := util.ParseID(ctx.Param("userId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid user id")
		return 0, false
	}
	return userID, authorize(ctx, userID)
}

func authorize(ctx *gin.Context, userID uint) bool {
	if err := util.CheckActFor(ctx, userID); err != nil {
		util.HandleServiceError(ctx, err)
		return false
	}
	return true
}
