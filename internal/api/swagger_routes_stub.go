//go:build !swagger

package api

import "github.com/gin-gonic/gin"

// registerSwaggerRoutes 非 swagger 构建下为空实现
func registerSwaggerRoutes(engine *gin.Engine) {}
