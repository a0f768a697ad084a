package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxPayloadBytes 是请求体上限：海报数据可能携带内嵌 base64 图片，放宽到 50MB；
// 超限请求在进入管线前被 HTTP 层拒绝。
const MaxPayloadBytes = 50 << 20

// RegisterRoutes 注册导出服务的全部路由。
func RegisterRoutes(r *gin.Engine, s *Service) {
	api := r.Group("/api", limitPayload(MaxPayloadBytes), observeRequests())
	{
		api.GET("/health", health)
		api.POST("/render/image", s.renderImage)
		api.POST("/render/psd", s.renderDocument)
		// 兼容别名，行为与 /render/psd 完全一致
		api.POST("/render/document", s.renderDocument)
	}
}

func limitPayload(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
