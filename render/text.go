package render

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/affiche/fonts"
	"github.com/ByLCY/affiche/poster"
)

// 文本图层先生成矢量文本场景（每个换行一条文本行，按 textAlign 锚定），
// 再整体栅格化为与画布同尺寸的 RGBA 图层。图层 opacity 由合成阶段统一施加，
// 保证作用于整个文本块而不是逐字符。

// 画布单位按 1 单位 = 1 像素建立，字号从像素换算为字体面需要的 pt。
const (
	ptToPx = 0.352777
	pxToPt = 1.0 / ptToPx
)

// lineHeightFactor 是行距系数，两条导出管线共用。
const lineHeightFactor = 1.2

// 找不到请求字体时依次尝试的通用后备家族，保证关键路径上文字仍然可读。
var fallbackFamilies = []string{"Arial", "Helvetica", "DejaVuSans", "DejaVu Sans", "Liberation Sans", "NotoSans-Regular"}

// TextRasterizer 把文本图层渲染为像素。字体家族按「家族名|字重」缓存，
// 与进程内其它请求共享，只读字体文件可安全重入。
type TextRasterizer struct {
	Resolver *fonts.Resolver

	mu       sync.Mutex
	families map[string]*canvas.FontFamily
}

// NewTextRasterizer 创建文本栅格化器。
func NewTextRasterizer(resolver *fonts.Resolver) *TextRasterizer {
	return &TextRasterizer{Resolver: resolver, families: map[string]*canvas.FontFamily{}}
}

// Render 把已钳制的文本图层渲染为 canvasWidth×canvasHeight 的透明底图层。
// 空白内容由调用方跳过；这里只处理字体获取与排布。
func (t *TextRasterizer) Render(layer poster.Layer, canvasWidth, canvasHeight int) (image.Image, error) {
	tl := layer.Text
	if tl == nil {
		return nil, fmt.Errorf("图层 %s 不是文本图层", layer.ID)
	}

	style := canvas.FontRegular
	if tl.FontWeight == "bold" {
		style = canvas.FontBold
	}
	family, err := t.ensureFamily(tl.FontFamily, style)
	if err != nil {
		return nil, err
	}

	face := family.Face(tl.FontSize*pxToPt, poster.ParseHex(tl.Color).NRGBA(), style, canvas.FontNormal)

	c := canvas.New(float64(canvasWidth), float64(canvasHeight))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与图层模型一致：左上角为原点

	var align canvas.TextAlign
	var anchorX float64
	switch tl.TextAlign {
	case "center":
		align = canvas.Center
		anchorX = float64(layer.X) + float64(layer.Width)/2
	case "right":
		align = canvas.Right
		anchorX = float64(layer.X) + float64(layer.Width)
	default:
		align = canvas.Left
		anchorX = float64(layer.X)
	}

	// 首行基线位于 y+fontSize，之后每行前进 fontSize×1.2。
	baseline := float64(layer.Y) + tl.FontSize
	for _, line := range strings.Split(tl.Content, "\n") {
		if line != "" {
			ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, line, align))
		}
		baseline += tl.FontSize * lineHeightFactor
	}

	return rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace), nil
}

// ensureFamily 加载并缓存字体家族。顺序：解析器在已安装目录中定位字体文件，
// 失败时依次尝试通用后备家族；全部失败才返回错误（该文本图层降级为跳过）。
func (t *TextRasterizer) ensureFamily(familyName string, style canvas.FontStyle) (*canvas.FontFamily, error) {
	key := fmt.Sprintf("%s|%d", familyName, style)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.families == nil {
		t.families = map[string]*canvas.FontFamily{}
	}
	if family, ok := t.families[key]; ok {
		return family, nil
	}

	resolver := t.Resolver
	if resolver == nil {
		resolver = fonts.NewResolver()
	}

	candidates := append([]string{familyName}, fallbackFamilies...)
	for _, name := range candidates {
		path, ok := resolver.FileFor(name)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		family := canvas.NewFontFamily(familyName)
		if err := family.LoadFont(data, 0, style); err != nil {
			continue
		}
		t.families[key] = family
		return family, nil
	}
	return nil, fmt.Errorf("没有可用字体: %q（含后备家族）", familyName)
}
