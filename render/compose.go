// Package render 实现栅格合成管线：把声明式图层模型平铺为单张
// PNG/JPEG 像素图。图层按 z 序（切片顺序）逐个压到背景上，单个图层的
// 失败降级为占位块或跳过，绝不中断整次导出。
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/affiche/fonts"
	"github.com/ByLCY/affiche/poster"
)

// ErrUnsupportedFormat 表示调用方请求了 png/jpg/jpeg 之外的输出格式，
// 属于请求级错误（对应 HTTP 400），不做静默纠正。
var ErrUnsupportedFormat = errors.New("不支持的格式，仅支持 png, jpg, jpeg")

// DefaultJPEGQuality 是未指定时的 JPEG 质量。
const DefaultJPEGQuality = 95

// Compositor 将图层模型合成为平铺位图。无共享可变状态，可被并发请求复用。
type Compositor struct {
	Fetcher *Fetcher
	Text    *TextRasterizer
}

// NewCompositor 创建合成器；resolver 供文本管线定位字体文件。
func NewCompositor(resolver *fonts.Resolver, fetchTimeout time.Duration) *Compositor {
	return &Compositor{
		Fetcher: NewFetcher(fetchTimeout),
		Text:    NewTextRasterizer(resolver),
	}
}

// Compose 把文档平铺为一张 NRGBA 位图。
// 图片图层的抓取并发进行（各图层互不依赖），最终合成在单趟 z 序
// 循环里完成，保证叠放结果可复现。
func (c *Compositor) Compose(ctx context.Context, doc poster.Document) (*image.NRGBA, error) {
	if err := doc.Canvas.Validate(); err != nil {
		return nil, err
	}
	doc = doc.Clone()

	w, h := doc.Canvas.Width, doc.Canvas.Height
	dst := imaging.New(w, h, doc.Canvas.Background().NRGBA())

	// 预抓取：每个图片图层独立加载（含 cover 适配与占位降级）。
	prepared := make([]*image.NRGBA, len(doc.Layers))
	var wg sync.WaitGroup
	for i, layer := range doc.Layers {
		if layer.Kind != poster.LayerImage {
			continue
		}
		clamped := poster.ClampToCanvas(layer, w, h)
		wg.Add(1)
		go func(i int, l poster.Layer) {
			defer wg.Done()
			img, err := c.Fetcher.Cover(ctx, l.Image.Src, l.Width, l.Height)
			if err != nil {
				log.Printf("render: 图片图层 %s 降级为占位块: %v", l.ID, err)
			}
			prepared[i] = img
		}(i, clamped)
	}
	wg.Wait()

	// 单趟确定性合成。
	for i, layer := range doc.Layers {
		clamped := poster.ClampToCanvas(layer, w, h)
		switch layer.Kind {
		case poster.LayerImage:
			dst = imaging.Overlay(dst, prepared[i], image.Pt(clamped.X, clamped.Y), clampOpacity(clamped.Opacity))
		case poster.LayerText:
			if clamped.Text.Empty() {
				log.Printf("render: 文本图层 %s 内容为空，跳过", layer.ID)
				continue
			}
			textImg, err := c.Text.Render(clamped, w, h)
			if err != nil {
				log.Printf("render: 渲染文本图层 %s 失败，跳过: %v", layer.ID, err)
				continue
			}
			dst = imaging.Overlay(dst, textImg, image.Pt(0, 0), clampOpacity(clamped.Opacity))
		}
	}
	return dst, nil
}

func clampOpacity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Encode 按格式编码合成结果，返回字节与 Content-Type。
// png 使用最高压缩；jpg/jpeg 使用调用方质量（1-100，缺省 95）。
func Encode(img image.Image, format string, quality int) ([]byte, string, error) {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, "", fmt.Errorf("编码 PNG 失败: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	case "jpg", "jpeg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, "", fmt.Errorf("编码 JPEG 失败: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		return nil, "", ErrUnsupportedFormat
	}
}
