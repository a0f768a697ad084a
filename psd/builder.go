package psd

import (
	"context"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/affiche/fonts"
	"github.com/ByLCY/affiche/poster"
	"github.com/ByLCY/affiche/render"
)

// Builder 把图层模型构建为分层文档。无共享可变状态，可被并发请求复用。
type Builder struct {
	Resolver *fonts.Resolver
	Fetcher  *render.Fetcher
}

// NewBuilder 创建文档构建器。
func NewBuilder(resolver *fonts.Resolver, fetchTimeout time.Duration) *Builder {
	return &Builder{Resolver: resolver, Fetcher: render.NewFetcher(fetchTimeout)}
}

// Build 构建文档字节流，并返回实际用到的字体家族显示名（按首次出现排序）。
//
// 子图层栈固定为：合成背景矩形 → 图片图层（保持相对顺序）→ 文本图层
// （保持相对顺序）。当用户把图片叠在文字之上时，这一「图片在下」的分组
// 不等于原始数组的真实交错 z 序——栅格管线保留真实 z 序，这里沿用上游
// 编辑器约定的分组结果。
func (b *Builder) Build(ctx context.Context, doc poster.Document) ([]byte, []string, error) {
	if err := doc.Canvas.Validate(); err != nil {
		return nil, nil, err
	}
	doc = doc.Clone()
	w, h := doc.Canvas.Width, doc.Canvas.Height

	// 图片图层预抓取，各图层互不依赖。
	pixels := b.prefetchImages(ctx, doc)

	var textLayers, imageLayers []*Layer
	var usedFonts []string
	seenFonts := map[string]bool{}

	for i, layer := range doc.Layers {
		clamped := poster.ClampToCanvas(layer, w, h)
		switch layer.Kind {
		case poster.LayerText:
			if clamped.Text.Empty() {
				log.Printf("psd: 文本图层 %s 内容为空，跳过", layer.DisplayName())
				continue
			}
			if !seenFonts[clamped.Text.FontFamily] {
				seenFonts[clamped.Text.FontFamily] = true
				usedFonts = append(usedFonts, clamped.Text.FontFamily)
			}
			textLayers = append(textLayers, b.textLayer(clamped))
		case poster.LayerImage:
			imageLayers = append(imageLayers, imageLayer(clamped, pixels[i]))
		}
	}

	background := &Layer{
		Name:    "Background Color",
		Right:   w,
		Bottom:  h,
		Opacity: 1,
		Pixels:  poster.Solid(w, h, doc.Canvas.Background()),
	}

	children := make([]*Layer, 0, 1+len(imageLayers)+len(textLayers))
	children = append(children, background)
	children = append(children, imageLayers...)
	children = append(children, textLayers...)

	out := &Document{
		Width:  w,
		Height: h,
		Layers: children,
		Merged: mergedPreview(w, h, doc.Canvas.Background(), imageLayers),
	}
	data, err := out.Encode()
	if err != nil {
		return nil, nil, err
	}
	return data, usedFonts, nil
}

func (b *Builder) prefetchImages(ctx context.Context, doc poster.Document) []*image.NRGBA {
	w, h := doc.Canvas.Width, doc.Canvas.Height
	pixels := make([]*image.NRGBA, len(doc.Layers))
	var wg sync.WaitGroup
	for i, layer := range doc.Layers {
		if layer.Kind != poster.LayerImage {
			continue
		}
		clamped := poster.ClampToCanvas(layer, w, h)
		wg.Add(1)
		go func(i int, l poster.Layer) {
			defer wg.Done()
			img, err := b.Fetcher.Cover(ctx, l.Image.Src, l.Width, l.Height)
			if err != nil {
				log.Printf("psd: 图片图层 %s 使用占位像素: %v", l.DisplayName(), err)
			}
			pixels[i] = img
		}(i, clamped)
	}
	wg.Wait()
	return pixels
}

// textLayer 构建文本记录：边界取钳制后的盒；transform 携带绝对偏移，
// boxBounds 从 (0,0) 开始（文档格式的本地坐标与画布绝对坐标解耦）。
func (b *Builder) textLayer(l poster.Layer) *Layer {
	t := l.Text
	resolver := b.Resolver
	if resolver == nil {
		resolver = fonts.NewResolver()
	}
	identity := resolver.Resolve(t.FontFamily)
	log.Printf("psd: 文字 %q -> 字体 %s (%s)", t.Content, t.FontFamily, identity)

	return &Layer{
		Name:    l.DisplayName(),
		Left:    l.X,
		Top:     l.Y,
		Right:   l.X + l.Width,
		Bottom:  l.Y + l.Height,
		Opacity: l.Opacity,
		Text: &TextInfo{
			Text:          t.Content,
			Transform:     [6]float64{1, 0, 0, 1, float64(l.X), float64(l.Y)},
			BoxBounds:     [4]float64{0, 0, float64(l.Width), float64(l.Height)},
			Justification: t.TextAlign,
			Style: TextStyle{
				Font:          identity,
				FontSize:      t.FontSize,
				FillColor:     poster.ParseHex(t.Color),
				Leading:       int(math.Round(t.FontSize * 1.2)),
				Tracking:      0,
				AutoLeading:   false,
				BaselineShift: 0,
			},
		},
	}
}

func imageLayer(l poster.Layer, pixels *image.NRGBA) *Layer {
	if pixels == nil {
		// 抓取阶段未覆盖（理论上不会发生），以中灰占位兜底
		pixels = poster.Solid(l.Width, l.Height, poster.PlaceholderGray)
	}
	return &Layer{
		Name:    l.DisplayName(),
		Left:    l.X,
		Top:     l.Y,
		Right:   l.X + l.Width,
		Bottom:  l.Y + l.Height,
		Opacity: l.Opacity,
		Pixels:  pixels,
	}
}

// mergedPreview 用已就位的图层像素合成预览图（背景 + 图片；文本由
// 消费端重新排版，不进预览）。
func mergedPreview(w, h int, bg poster.Color, imageLayers []*Layer) *image.NRGBA {
	dst := imaging.New(w, h, bg.NRGBA())
	for _, l := range imageLayers {
		dst = imaging.Overlay(dst, l.Pixels, image.Pt(l.Left, l.Top), clamp01(l.Opacity))
	}
	return dst
}
