// Package server 是导出门面：校验输入、分发到栅格合成或分层文档构建、
// 打包输出并按约定的 HTTP 契约回报成败。
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ByLCY/affiche/fonts"
	"github.com/ByLCY/affiche/poster"
	"github.com/ByLCY/affiche/psd"
	"github.com/ByLCY/affiche/render"
)

// Service 聚合两条导出管线；自身无状态，所有请求共享同一实例。
type Service struct {
	Compositor *render.Compositor
	Builder    *psd.Builder
}

// NewService 创建导出服务。
func NewService(resolver *fonts.Resolver, fetchTimeout time.Duration) *Service {
	return &Service{
		Compositor: render.NewCompositor(resolver, fetchTimeout),
		Builder:    psd.NewBuilder(resolver, fetchTimeout),
	}
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderImage 处理 POST /api/render/image?format=png|jpg|jpeg&quality=1-100。
// 成功返回原始图片字节；不支持的格式返回 400，内部失败返回 500。
func (s *Service) renderImage(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "png"))
	quality := render.DefaultJPEGQuality
	if q := c.Query("quality"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("quality 参数非法: %q", q)})
			return
		}
		quality = v
	}

	var doc poster.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img, err := s.Compositor.Compose(c.Request.Context(), doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	data, contentType, err := render.Encode(img, format, quality)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	filename := "poster." + format
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
	log.Printf("server: 图片导出完成: %s (%d bytes)", filename, len(data))
}

// renderDocument 处理 POST /api/render/psd：构建分层文档并连同字体
// 安装说明打成 zip 返回。
func (s *Service) renderDocument(c *gin.Context) {
	var doc poster.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	psdBytes, usedFonts, err := s.Builder.Build(c.Request.Context(), doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("server: 检测到使用的字体: %s", strings.Join(usedFonts, ", "))

	archive, err := PackageZip(psdBytes, usedFonts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=poster_with_fonts.zip")
	c.Data(http.StatusOK, "application/zip", archive)
	log.Printf("server: 文档导出完成 (%d bytes, PSD %d bytes)", len(archive), len(psdBytes))
}
