package poster

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// 该文件定义海报的声明式图层模型：画布 + 有序图层列表。
// 模型由上游（AI 生成或编辑器）产出，经 JSON 传入导出管线；
// 导出管线只读不改，处理前先做防御性拷贝。

// LayerKind 区分图层变体，序列化时对应 JSON 的 type 字段。
type LayerKind string

const (
	LayerText  LayerKind = "text"
	LayerImage LayerKind = "image"
)

// Canvas 描述画布尺寸与底色，单次导出内不可变。
type Canvas struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`
}

// Validate 校验画布为结构性合法输入；尺寸非法属于请求级错误。
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("画布尺寸非法: %dx%d", c.Width, c.Height)
	}
	return nil
}

// Background 返回画布底色，缺省为白色。
func (c Canvas) Background() Color {
	if strings.TrimSpace(c.BackgroundColor) == "" {
		return Color{R: 255, G: 255, B: 255}
	}
	return ParseHex(c.BackgroundColor)
}

// Layer 是 text/image 的和类型：Kind 为判别字段，两个载荷指针有且仅有一个非空。
// 公共字段采用 CSS 盒模型语义：x/y 为左上角画布像素坐标（钳制前允许为负）。
// Rotation 随模型透传但两条导出管线均不应用（与上游编辑器约定一致）。
type Layer struct {
	ID       string
	Name     string
	Kind     LayerKind
	X        int
	Y        int
	Width    int
	Height   int
	Rotation float64
	Opacity  float64

	Text  *TextLayer
	Image *ImageLayer
}

// TextLayer 是文本变体的专有字段。字段缺省值在反序列化时填充：
// fontFamily=Arial、color=#000000、textAlign=left、fontWeight=normal、fontSize=16。
type TextLayer struct {
	Content    string
	FontSize   float64
	Color      string
	FontFamily string
	TextAlign  string
	FontWeight string
}

// Empty 判断文本内容是否为空白；空白文本图层在两条管线里都按跳过处理。
func (t *TextLayer) Empty() bool {
	return t == nil || strings.TrimSpace(t.Content) == ""
}

// ImageLayer 是图片变体的专有字段；Src 支持 data URI 或 http(s) URL。
type ImageLayer struct {
	Src string
}

// Document 是一次导出请求的完整输入。
type Document struct {
	Canvas Canvas  `json:"canvas"`
	Layers []Layer `json:"layers"`
}

// Clone 返回文档的深拷贝，导出管线在拷贝上工作，保证调用方数据不被修改。
func (d Document) Clone() Document {
	out := Document{Canvas: d.Canvas, Layers: make([]Layer, len(d.Layers))}
	for i, l := range d.Layers {
		out.Layers[i] = l
		if l.Text != nil {
			t := *l.Text
			out.Layers[i].Text = &t
		}
		if l.Image != nil {
			img := *l.Image
			out.Layers[i].Image = &img
		}
	}
	return out
}

// layerJSON 是图层的扁平线格式（与上游编辑器的 schema 对齐）。
// opacity 用指针区分“未给出”（缺省 1.0）与显式 0。
type layerJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Type     string   `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`

	Content    string  `json:"content,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`

	Src string `json:"src,omitempty"`
}

// UnmarshalJSON 将扁平线格式拆成带判别字段的和类型，未知 type 视为结构性错误。
func (l *Layer) UnmarshalJSON(data []byte) error {
	var raw layerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	opacity := 1.0
	if raw.Opacity != nil {
		opacity = *raw.Opacity
	}
	*l = Layer{
		ID:       raw.ID,
		Name:     raw.Name,
		X:        int(math.Round(raw.X)),
		Y:        int(math.Round(raw.Y)),
		Width:    int(math.Round(raw.Width)),
		Height:   int(math.Round(raw.Height)),
		Rotation: raw.Rotation,
		Opacity:  opacity,
	}

	switch LayerKind(raw.Type) {
	case LayerText:
		l.Kind = LayerText
		l.Text = &TextLayer{
			Content:    raw.Content,
			FontSize:   raw.FontSize,
			Color:      raw.Color,
			FontFamily: raw.FontFamily,
			TextAlign:  raw.TextAlign,
			FontWeight: raw.FontWeight,
		}
		l.Text.applyDefaults()
	case LayerImage:
		l.Kind = LayerImage
		l.Image = &ImageLayer{Src: raw.Src}
	default:
		return fmt.Errorf("未知图层类型 %q (id=%s)", raw.Type, raw.ID)
	}
	return nil
}

// MarshalJSON 输出与上游一致的扁平线格式。
func (l Layer) MarshalJSON() ([]byte, error) {
	opacity := l.Opacity
	raw := layerJSON{
		ID:       l.ID,
		Name:     l.Name,
		Type:     string(l.Kind),
		X:        float64(l.X),
		Y:        float64(l.Y),
		Width:    float64(l.Width),
		Height:   float64(l.Height),
		Rotation: l.Rotation,
		Opacity:  &opacity,
	}
	if l.Text != nil {
		raw.Content = l.Text.Content
		raw.FontSize = l.Text.FontSize
		raw.Color = l.Text.Color
		raw.FontFamily = l.Text.FontFamily
		raw.TextAlign = l.Text.TextAlign
		raw.FontWeight = l.Text.FontWeight
	}
	if l.Image != nil {
		raw.Src = l.Image.Src
	}
	return json.Marshal(raw)
}

func (t *TextLayer) applyDefaults() {
	if t.FontSize <= 0 {
		t.FontSize = 16
	}
	if t.Color == "" {
		t.Color = "#000000"
	}
	if t.FontFamily == "" {
		t.FontFamily = "Arial"
	}
	switch t.TextAlign {
	case "left", "center", "right":
	default:
		t.TextAlign = "left"
	}
	switch t.FontWeight {
	case "normal", "bold":
	default:
		t.FontWeight = "normal"
	}
}

// DisplayName 返回用于图层面板/文档图层名的显示名称。
func (l Layer) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	if l.ID != "" {
		return l.ID
	}
	if l.Kind == LayerText {
		return "Text Layer"
	}
	return "Image Layer"
}
