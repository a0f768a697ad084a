package render

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/affiche/fonts"
	"github.com/ByLCY/affiche/poster"
)

func newTestCompositor() *Compositor {
	return NewCompositor(fonts.NewResolver(), 0)
}

// TestComposeBackground 验证无图层文档输出为底色填充的画布。
func TestComposeBackground(t *testing.T) {
	doc := poster.Document{
		Canvas: poster.Canvas{Width: 4, Height: 3, BackgroundColor: "#336699"},
	}
	img, err := newTestCompositor().Compose(context.Background(), doc)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("画布尺寸错误: %v", img.Bounds())
	}
	want := color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 255}
	if got := img.NRGBAAt(2, 1); got != want {
		t.Fatalf("底色错误: got=%+v want=%+v", got, want)
	}
}

// TestComposeInvalidCanvas 验证非法画布尺寸属于请求级错误。
func TestComposeInvalidCanvas(t *testing.T) {
	doc := poster.Document{Canvas: poster.Canvas{Width: 0, Height: 10}}
	if _, err := newTestCompositor().Compose(context.Background(), doc); err == nil {
		t.Fatalf("非法画布应报错")
	}
}

// TestComposeZOrder 验证叠放次序：切片顺序即 z 序，后出现的图层覆盖先出现的。
func TestComposeZOrder(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	doc := poster.Document{
		Canvas: poster.Canvas{Width: 8, Height: 8},
		Layers: []poster.Layer{
			{ID: "under", Kind: poster.LayerImage, Width: 8, Height: 8, Opacity: 1,
				Image: &poster.ImageLayer{Src: pngDataURI(t, 8, 8, red)}},
			{ID: "over", Kind: poster.LayerImage, X: 4, Width: 4, Height: 8, Opacity: 1,
				Image: &poster.ImageLayer{Src: pngDataURI(t, 4, 8, blue)}},
		},
	}
	img, err := newTestCompositor().Compose(context.Background(), doc)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if got := img.NRGBAAt(1, 4); got.R != 255 || got.B != 0 {
		t.Fatalf("左半应为下层红色: %+v", got)
	}
	if got := img.NRGBAAt(6, 4); got.B != 255 || got.R != 0 {
		t.Fatalf("右半应为上层蓝色: %+v", got)
	}
}

// TestComposeClampsOverflow 验证越界图层被钳回画布，画布外不可见也不报错。
func TestComposeClampsOverflow(t *testing.T) {
	green := color.NRGBA{G: 255, A: 255}
	doc := poster.Document{
		Canvas: poster.Canvas{Width: 4, Height: 4},
		Layers: []poster.Layer{
			{ID: "big", Kind: poster.LayerImage, X: -10, Y: -10, Width: 100, Height: 100, Opacity: 1,
				Image: &poster.ImageLayer{Src: pngDataURI(t, 2, 2, green)}},
		},
	}
	img, err := newTestCompositor().Compose(context.Background(), doc)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	for _, pt := range [][2]int{{0, 0}, {3, 3}, {2, 1}} {
		if got := img.NRGBAAt(pt[0], pt[1]); got.G != 255 {
			t.Fatalf("钳制后应铺满画布, (%d,%d)=%+v", pt[0], pt[1], got)
		}
	}
}

// TestComposeOpacity 验证图层透明度在合成阶段生效（50% 红压白 → 粉）。
func TestComposeOpacity(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	doc := poster.Document{
		Canvas: poster.Canvas{Width: 2, Height: 2, BackgroundColor: "#ffffff"},
		Layers: []poster.Layer{
			{ID: "half", Kind: poster.LayerImage, Width: 2, Height: 2, Opacity: 0.5,
				Image: &poster.ImageLayer{Src: pngDataURI(t, 2, 2, red)}},
		},
	}
	img, err := newTestCompositor().Compose(context.Background(), doc)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	got := img.NRGBAAt(1, 1)
	if got.R != 255 {
		t.Fatalf("红色通道应保持: %+v", got)
	}
	// 绿蓝通道应落在 120-135 附近（255 白与 0 红的中点）
	if got.G < 120 || got.G > 135 || got.B < 120 || got.B > 135 {
		t.Fatalf("半透明混合错误: %+v", got)
	}
}

// TestComposeSkipsEmptyText 验证空白文本图层被跳过，不影响其余合成。
func TestComposeSkipsEmptyText(t *testing.T) {
	doc := poster.Document{
		Canvas: poster.Canvas{Width: 3, Height: 3, BackgroundColor: "#ff0000"},
		Layers: []poster.Layer{
			{ID: "blank", Kind: poster.LayerText, Width: 3, Height: 3, Opacity: 1,
				Text: &poster.TextLayer{Content: "   ", FontSize: 16}},
		},
	}
	img, err := newTestCompositor().Compose(context.Background(), doc)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if got := img.NRGBAAt(1, 1); got.R != 255 || got.G != 0 {
		t.Fatalf("空白文本不应改动画布: %+v", got)
	}
}

// TestComposeDoesNotMutateInput 验证合成在拷贝上工作，调用方文档不被修改。
func TestComposeDoesNotMutateInput(t *testing.T) {
	doc := poster.Document{
		Canvas: poster.Canvas{Width: 4, Height: 4},
		Layers: []poster.Layer{
			{ID: "i", Kind: poster.LayerImage, X: -5, Y: -5, Width: 50, Height: 50, Opacity: 1,
				Image: &poster.ImageLayer{Src: pngDataURI(t, 2, 2, color.NRGBA{R: 255, A: 255})}},
		},
	}
	if _, err := newTestCompositor().Compose(context.Background(), doc); err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if doc.Layers[0].X != -5 || doc.Layers[0].Width != 50 {
		t.Fatalf("输入文档被修改: %+v", doc.Layers[0])
	}
}

// TestEncodeFormats 验证三种合法格式的魔数与 Content-Type，其余格式拒绝。
func TestEncodeFormats(t *testing.T) {
	img := imaging.New(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	data, ct, err := Encode(img, "png", 0)
	if err != nil || ct != "image/png" {
		t.Fatalf("png 编码失败: ct=%q err=%v", ct, err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("PNG 魔数错误: % x", data[:4])
	}

	for _, format := range []string{"jpg", "jpeg", "JPEG"} {
		data, ct, err = Encode(img, format, 80)
		if err != nil || ct != "image/jpeg" {
			t.Fatalf("%s 编码失败: ct=%q err=%v", format, ct, err)
		}
		if data[0] != 0xff || data[1] != 0xd8 {
			t.Fatalf("JPEG 魔数错误: % x", data[:2])
		}
	}

	if _, _, err := Encode(img, "webp", 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("webp 应返回 ErrUnsupportedFormat，实际 %v", err)
	}
	if _, _, err := Encode(img, "", 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("空格式应返回 ErrUnsupportedFormat，实际 %v", err)
	}
}
