package poster

import (
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// 占位色：图片加载失败用中灰，来源不受支持用浅灰。
// 失败的图片以正确尺寸/位置的可见色块降级，不会中断整次导出。
var (
	PlaceholderGray  = Color{R: 200, G: 200, B: 200}
	PlaceholderLight = Color{R: 209, G: 213, B: 219}
)

// ParseHex 解析 6 位十六进制颜色，可带 # 前缀，大小写不敏感。
// 任何解析失败都返回黑色而不是报错：颜色是装饰性字段，宽松缺省优于中断请求。
func ParseHex(hex string) Color {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{
		R: int(v >> 16 & 0xff),
		G: int(v >> 8 & 0xff),
		B: int(v & 0xff),
	}
}

// NRGBA 转为标准库颜色，alpha 固定为不透明。
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

// Hex 输出 #RRGGBB 形式，便于日志与清单展示。
func (c Color) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4&0xf]
		b[2+i*2] = digits[v&0xf]
	}
	return string(b)
}

// Solid 生成 width×height 的纯色 RGBA 像素缓冲（alpha=255）。
// 用于背景合成与占位色块。
func Solid(width, height int, c Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	px := c.NRGBA()
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = px.R
		img.Pix[i+1] = px.G
		img.Pix[i+2] = px.B
		img.Pix[i+3] = 255
	}
	return img
}
