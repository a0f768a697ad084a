// Package psd 实现分层文档（Photoshop PSD）的二进制编码与构建。
// Go 生态没有可用的 PSD 编码库（现有库均为只读解码），因此这里按公开的
// 文件格式说明手写编码器：文件头、图层记录、RLE 通道数据、文本图层的
// TySh 附加信息与引擎数据。文本图层只携带样式记录、不携带缓存字形栅格，
// 打开文档的应用会按声明的样式重新排版。
package psd

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// writer 是大端二进制写入的小封装；PSD 全文件均为大端。
type writer struct {
	buf bytes.Buffer
}

func (w *writer) raw(b []byte)   { w.buf.Write(b) }
func (w *writer) sig(s string)   { w.buf.WriteString(s) }
func (w *writer) u8(v uint8)     { w.buf.WriteByte(v) }
func (w *writer) u16(v uint16)   { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *writer) u32(v uint32)   { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *writer) i16(v int16)    { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *writer) i32(v int32)    { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *writer) f64(v float64)  { binary.Write(&w.buf, binary.BigEndian, math.Float64bits(v)) }
func (w *writer) len() int       { return w.buf.Len() }
func (w *writer) bytes() []byte  { return w.buf.Bytes() }

// zero 写入 n 个零字节。
func (w *writer) zero(n int) {
	w.raw(make([]byte, n))
}

// pad 补零到 align 的整数倍（以 since 为起点计算）。
func (w *writer) pad(since, align int) {
	if rem := (w.len() - since) % align; rem != 0 {
		w.zero(align - rem)
	}
}

// pascalString 写入 Pascal 字符串（1 字节长度 + 内容），整体补齐到 align 的倍数。
func (w *writer) pascalString(s string, align int) {
	b := []byte(s)
	if len(b) > 255 {
		b = b[:255]
	}
	start := w.len()
	w.u8(uint8(len(b)))
	w.raw(b)
	w.pad(start, align)
}

// unicodeString 写入 PSD 的 Unicode 字符串：4 字节字符数 + UTF-16BE 内容。
func (w *writer) unicodeString(s string) {
	units := utf16.Encode([]rune(s))
	w.u32(uint32(len(units)))
	for _, u := range units {
		w.u16(u)
	}
}

// key 写入描述符键：长度为 4 时按约定写长度 0 + 4 字节短键，否则写显式长度。
func (w *writer) key(s string) {
	if len(s) == 4 {
		w.u32(0)
		w.sig(s)
		return
	}
	w.u32(uint32(len(s)))
	w.sig(s)
}

// section 预留 4 字节长度字段，写入 body 后回填实际长度（含对齐补零）。
func (w *writer) section(align int, body func(*writer)) {
	lenAt := w.len()
	w.u32(0)
	start := w.len()
	body(w)
	w.pad(start, align)
	size := uint32(w.len() - start)
	binary.BigEndian.PutUint32(w.buf.Bytes()[lenAt:lenAt+4], size)
}
