package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ByLCY/affiche/fonts"
	"github.com/ByLCY/affiche/render"
	"github.com/ByLCY/affiche/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用环境变量缺省值")
	}

	resolver := fonts.NewResolver()
	if dirs := os.Getenv("AFFICHE_FONT_DIRS"); dirs != "" {
		resolver.Catalog = fonts.NewDirCatalog(strings.Split(dirs, ":")...)
	}

	fetchTimeout := render.DefaultFetchTimeout
	if v := os.Getenv("AFFICHE_FETCH_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			fetchTimeout = time.Duration(secs) * time.Second
		}
	}

	svc := server.NewService(resolver, fetchTimeout)
	server.InitMetrics()

	r := gin.Default()
	server.RegisterRoutes(r, svc)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Render Service 启动: http://localhost:%s", port)
	log.Println("  - POST /api/render/image?format=png|jpg|jpeg - 生成图片")
	log.Println("  - POST /api/render/psd - 生成 PSD 源文件（zip 含字体说明）")
	if err := r.Run(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
