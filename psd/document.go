package psd

import (
	"fmt"
	"image"

	"github.com/ByLCY/affiche/poster"
)

// Document 是待序列化的逻辑文档：尺寸、自底向上的子图层栈与可选的合成预览。
type Document struct {
	Width  int
	Height int
	Layers []*Layer // index 0 在最底层
	Merged *image.NRGBA
}

// Layer 是单条图层记录。栅格图层携带 Pixels；文本图层携带 Text，
// 栅格通道留空（消费端按样式重新排版，不信任缓存渲染）。
type Layer struct {
	Name   string
	Left   int
	Top    int
	Right  int
	Bottom int

	Opacity float64 // 0.0-1.0

	Pixels *image.NRGBA // 尺寸必须等于 (Right-Left)×(Bottom-Top)
	Text   *TextInfo

	payloads [][]byte // 预编码的通道数据，记录与数据段共用
}

// TextInfo 描述文本图层的文档原生记录：transform 携带画布绝对偏移，
// BoxBounds 是相对 transform 原点的本地文本框（从 0,0 开始）。
type TextInfo struct {
	Text          string
	Transform     [6]float64
	BoxBounds     [4]float64
	Justification string // left/center/right

	Style TextStyle
}

// TextStyle 对应文本样式块。
type TextStyle struct {
	Font          string // PostScript 名
	FontSize      float64
	FillColor     poster.Color
	Leading       int
	Tracking      int
	AutoLeading   bool
	BaselineShift float64
}

const (
	psdSignature  = "8BPS"
	psdVersion    = 1
	colorModeRGB  = 3
	channelCount  = 3
	bitsPerSample = 8
)

// Encode 序列化为 PSD 字节流。
func (d *Document) Encode() ([]byte, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("psd: 文档尺寸非法: %dx%d", d.Width, d.Height)
	}
	for _, l := range d.Layers {
		if l.Pixels != nil {
			b := l.Pixels.Bounds()
			if b.Dx() != l.Right-l.Left || b.Dy() != l.Bottom-l.Top {
				return nil, fmt.Errorf("psd: 图层 %q 像素尺寸 %dx%d 与记录边界 %dx%d 不一致",
					l.Name, b.Dx(), b.Dy(), l.Right-l.Left, l.Bottom-l.Top)
			}
		}
	}

	w := &writer{}
	d.writeHeader(w)
	w.u32(0) // 色彩模式数据段为空
	d.writeImageResources(w)
	d.writeLayerAndMaskInfo(w)
	d.writeMergedImage(w)
	return w.bytes(), nil
}

func (d *Document) writeHeader(w *writer) {
	w.sig(psdSignature)
	w.u16(psdVersion)
	w.zero(6)
	w.u16(channelCount)
	w.u32(uint32(d.Height))
	w.u32(uint32(d.Width))
	w.u16(bitsPerSample)
	w.u16(colorModeRGB)
}

// writeImageResources 只写分辨率资源（ID 1005，72 DPI），其余资源省略。
func (d *Document) writeImageResources(w *writer) {
	w.section(2, func(w *writer) {
		w.sig("8BIM")
		w.u16(1005)
		w.pascalString("", 2)
		w.section(2, func(w *writer) {
			w.u32(72 << 16) // 水平分辨率，定点 16.16
			w.u16(1)        // 单位：像素/英寸
			w.u16(1)        // 宽度单位：英寸
			w.u32(72 << 16) // 垂直分辨率
			w.u16(1)
			w.u16(1)
		})
	})
}

func (d *Document) writeLayerAndMaskInfo(w *writer) {
	w.section(2, func(w *writer) {
		// 图层信息子段
		w.section(2, func(w *writer) {
			w.i16(int16(len(d.Layers)))
			for _, l := range d.Layers {
				l.writeRecord(w)
			}
			for _, l := range d.Layers {
				l.writeChannelData(w)
			}
		})
		w.u32(0) // 全局图层蒙版信息为空
	})
}

// 通道顺序固定为 R、G、B、透明度，与记录里的通道信息一一对应。
var channelIDs = [4]int16{0, 1, 2, -1}

func (l *Layer) writeRecord(w *writer) {
	w.i32(int32(l.Top))
	w.i32(int32(l.Left))
	w.i32(int32(l.Bottom))
	w.i32(int32(l.Right))

	channels := l.channelPayloads()
	w.u16(uint16(len(channels)))
	for i, ch := range channels {
		w.i16(channelIDs[i])
		w.u32(uint32(len(ch)))
	}

	w.sig("8BIM")
	w.sig("norm") // 混合模式固定为 normal
	w.u8(uint8(clamp01(l.Opacity)*255 + 0.5))
	w.u8(0) // clipping: base
	w.u8(0) // flags
	w.u8(0) // filler

	w.section(2, func(w *writer) {
		w.u32(0) // 无图层蒙版
		w.u32(0) // 无混合范围
		w.pascalString(l.Name, 4)

		writeAdditionalInfo(w, "luni", func(w *writer) {
			w.unicodeString(l.Name)
		})
		if l.Text != nil {
			writeAdditionalInfo(w, "TySh", func(w *writer) {
				l.Text.write(w)
			})
		}
	})
}

// channelPayloads 预编码各通道数据体（含 2 字节压缩标记），结果缓存：
// 图层记录需要各通道长度，数据段需要字节本体。
// 文本图层不携带栅格：每个通道只有 raw 压缩标记、零字节数据。
func (l *Layer) channelPayloads() [][]byte {
	if l.payloads != nil {
		return l.payloads
	}
	if l.Pixels == nil {
		empty := []byte{0, 0} // compression = 0 (raw)，无数据
		l.payloads = [][]byte{empty, empty, empty, empty}
		return l.payloads
	}

	width := l.Right - l.Left
	height := l.Bottom - l.Top
	planes := splitPlanes(l.Pixels, width, height)

	out := make([][]byte, 4)
	for i, plane := range planes {
		cw := &writer{}
		cw.u16(1) // RLE
		counts, data := encodeRLEChannel(plane, width, height)
		for _, c := range counts {
			cw.u16(c)
		}
		cw.raw(data)
		out[i] = cw.bytes()
	}
	l.payloads = out
	return out
}

func (l *Layer) writeChannelData(w *writer) {
	for _, ch := range l.channelPayloads() {
		w.raw(ch)
	}
}

// splitPlanes 把交错的 NRGBA 拆成 R/G/B/A 四个平面，顺序与 channelIDs 一致。
func splitPlanes(img *image.NRGBA, width, height int) [4][]byte {
	var planes [4][]byte
	for i := range planes {
		planes[i] = make([]byte, width*height)
	}
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			planes[0][y*width+x] = row[x*4]
			planes[1][y*width+x] = row[x*4+1]
			planes[2][y*width+x] = row[x*4+2]
			planes[3][y*width+x] = row[x*4+3]
		}
	}
	return planes
}

// writeMergedImage 写合成预览：RLE，所有通道的行字节数表在前，数据体在后。
// 没有提供预览时写全白底。
func (d *Document) writeMergedImage(w *writer) {
	merged := d.Merged
	if merged == nil {
		merged = poster.Solid(d.Width, d.Height, poster.Color{R: 255, G: 255, B: 255})
	}
	planes := splitPlanes(merged, d.Width, d.Height)

	w.u16(1) // RLE
	allCounts := make([][]uint16, channelCount)
	allData := make([][]byte, channelCount)
	for i := 0; i < channelCount; i++ {
		allCounts[i], allData[i] = encodeRLEChannel(planes[i], d.Width, d.Height)
	}
	for i := 0; i < channelCount; i++ {
		for _, c := range allCounts[i] {
			w.u16(c)
		}
	}
	for i := 0; i < channelCount; i++ {
		w.raw(allData[i])
	}
}

func writeAdditionalInfo(w *writer, key string, body func(*writer)) {
	w.sig("8BIM")
	w.sig(key)
	w.section(4, body)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
