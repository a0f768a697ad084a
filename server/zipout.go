package server

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// baselineFont 默认所有环境都可用，不列入安装提醒。
const baselineFont = "Arial"

// PackageZip 把文档字节与字体安装说明打成 zip 包。
// 收件人按 README 安装缺失字体后再打开文档，避免静默的字体替换。
func PackageZip(psdBytes []byte, usedFonts []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	f, err := zw.Create("poster.psd")
	if err != nil {
		return nil, fmt.Errorf("创建 zip 条目失败: %w", err)
	}
	if _, err := f.Write(psdBytes); err != nil {
		return nil, fmt.Errorf("写入 PSD 失败: %w", err)
	}

	readme, err := zw.Create("README.txt")
	if err != nil {
		return nil, fmt.Errorf("创建 zip 条目失败: %w", err)
	}
	if _, err := readme.Write([]byte(FontReadme(usedFonts))); err != nil {
		return nil, fmt.Errorf("写入 README 失败: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("关闭 zip 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// FontReadme 生成字体安装提醒文本，基线字体（Arial）不列入。
func FontReadme(usedFonts []string) string {
	var custom []string
	for _, f := range usedFonts {
		if f != baselineFont {
			custom = append(custom, "- "+f)
		}
	}
	fontList := "（无自定义字体）"
	if len(custom) > 0 {
		fontList = strings.Join(custom, "\n")
	}

	return fmt.Sprintf(`字体安装提醒

本 ZIP 包包含：
- poster.psd - 海报 PSD 文件

使用的字体：
%s

请确保您已安装上述所有字体，否则打开 PSD 文件时字体可能无法正确显示。
`, fontList)
}
