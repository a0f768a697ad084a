package psd

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// TySh（类型工具对象设置）承载文本图层的全部样式信息：
// 仿射变换、文本框、描述符与引擎数据。这里生成的记录不含缓存的字形栅格，
// 等价于让消费端重新排版（声明的样式是唯一真相来源）。

const (
	tyShVersion       = 1
	tyShTextVersion   = 50
	descriptorVersion = 16
	warpVersion       = 1
)

func (t *TextInfo) write(w *writer) {
	w.u16(tyShVersion)
	for _, v := range t.Transform {
		w.f64(v)
	}

	w.u16(tyShTextVersion)
	w.u32(descriptorVersion)
	t.writeTextDescriptor(w)

	w.u16(warpVersion)
	w.u32(descriptorVersion)
	writeWarpDescriptor(w)

	// 文本框：left/top/right/bottom（相对 transform 原点）
	w.i32(int32(t.BoxBounds[0]))
	w.i32(int32(t.BoxBounds[1]))
	w.i32(int32(t.BoxBounds[2]))
	w.i32(int32(t.BoxBounds[3]))
}

// writeTextDescriptor 写文本对象描述符（classID TxLr）。
func (t *TextInfo) writeTextDescriptor(w *writer) {
	w.unicodeString("")
	w.key("TxLr")
	w.u32(6) // 条目数

	w.key("Txt ")
	w.sig("TEXT")
	w.unicodeString(t.Text)

	w.key("textGridding")
	w.sig("enum")
	w.key("textGridding")
	w.key("None")

	w.key("Ori ")
	w.sig("enum")
	w.key("Ornt")
	w.key("Hrzn")

	w.key("AntA")
	w.sig("enum")
	w.key("Annt")
	w.key("antiAliasSharp")

	w.key("TextIndex")
	w.sig("long")
	w.u32(0)

	w.key("EngineData")
	w.sig("tdta")
	engine := t.engineData()
	w.u32(uint32(len(engine)))
	w.raw(engine)
}

// writeWarpDescriptor 写空变形描述符（classID warp，无变形）。
func writeWarpDescriptor(w *writer) {
	w.unicodeString("")
	w.key("warp")
	w.u32(5)

	w.key("warpStyle")
	w.sig("enum")
	w.key("warpStyle")
	w.key("warpNone")

	w.key("warpValue")
	w.sig("doub")
	w.f64(0)

	w.key("warpPerspective")
	w.sig("doub")
	w.f64(0)

	w.key("warpPerspectiveOther")
	w.sig("doub")
	w.f64(0)

	w.key("warpRotate")
	w.sig("enum")
	w.key("Ornt")
	w.key("Hrzn")
}

// justificationCode 映射段落对齐到引擎数据的编码。
func (t *TextInfo) justificationCode() int {
	switch t.Justification {
	case "center":
		return 2
	case "right":
		return 1
	default:
		return 0
	}
}

// engineData 生成文本引擎数据。格式是 PostScript 风格的字典文本：
// 段落运行与样式运行各覆盖全文，样式表携带字体索引、字号、填充色、
// 行距（autoLeading 关闭）、字距与基线偏移；字体集只登记一个条目。
func (t *TextInfo) engineData() []byte {
	runLen := len(utf16.Encode([]rune(t.Text))) + 1 // 引擎文本以 \r 收尾
	st := t.Style

	fill := fmt.Sprintf("<< /Type 1 /Values [ 1.0 %s %s %s ] >>",
		edFloat(float64(st.FillColor.R)/255),
		edFloat(float64(st.FillColor.G)/255),
		edFloat(float64(st.FillColor.B)/255))

	styleSheet := strings.Join([]string{
		"/Font 0",
		"/FontSize " + edFloat(st.FontSize),
		"/AutoLeading " + edBool(st.AutoLeading),
		"/Leading " + edFloat(float64(st.Leading)),
		"/Tracking " + edFloat(float64(st.Tracking)),
		"/BaselineShift " + edFloat(st.BaselineShift),
		"/FillColor " + fill,
		"/FillFlag true",
	}, " ")

	var b strings.Builder
	b.WriteString("<<\n/EngineDict\n<<\n")

	b.WriteString("/Editor\n<< /Text ")
	b.WriteString(edString(t.Text + "\r"))
	b.WriteString(" >>\n")

	fmt.Fprintf(&b, "/ParagraphRun\n<<\n/DefaultRunData << /ParagraphSheet << /DefaultStyleSheet 0 /Properties << >> >> >>\n"+
		"/RunArray [\n<< /ParagraphSheet << /DefaultStyleSheet 0 /Properties << /Justification %d >> >> >>\n]\n"+
		"/RunLengthArray [ %d ]\n/IsJoinable 1\n>>\n",
		t.justificationCode(), runLen)

	fmt.Fprintf(&b, "/StyleRun\n<<\n/DefaultRunData << /StyleSheet << /StyleSheetData << >> >> >>\n"+
		"/RunArray [\n<< /StyleSheet << /StyleSheetData << %s >> >> >>\n]\n"+
		"/RunLengthArray [ %d ]\n/IsJoinable 2\n>>\n",
		styleSheet, runLen)

	b.WriteString(">>\n/ResourceDict\n")
	b.WriteString(t.resourceDict())
	b.WriteString("\n/DocumentResources\n")
	b.WriteString(t.resourceDict())
	b.WriteString("\n>>")
	return []byte(b.String())
}

func (t *TextInfo) resourceDict() string {
	return fmt.Sprintf("<<\n/FontSet [\n<< /Name %s /Script 0 /FontType 1 /Synthetic 0 >>\n]\n"+
		"/TheNormalStyleSheet 0\n/TheNormalParagraphSheet 0\n>>", edString(t.Style.Font))
}

// edString 把字符串编码为引擎数据字面量：括号包裹、UTF-16BE、带 BOM，
// 反斜杠与括号需要转义。
func edString(s string) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteByte(0xfe)
	b.WriteByte(0xff)
	for _, u := range utf16.Encode([]rune(s)) {
		hi, lo := byte(u>>8), byte(u&0xff)
		for _, c := range [2]byte{hi, lo} {
			switch c {
			case '(', ')', '\\':
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func edFloat(v float64) string {
	s := fmt.Sprintf("%.5f", v)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func edBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
