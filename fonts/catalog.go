// Package fonts 负责把人类可读的字体显示名解析为文档格式使用的
// PostScript 内部名。解析基于主机已安装字体目录的扫描，扫描失败时
// 退化为别名表或合成猜测，保证解析永不失败。
package fonts

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/sfnt"
)

// Names 聚合单个字体（或字体集合中的子字体）名字表里的关键条目。
type Names struct {
	Family     string // 家族名（name ID 1）
	PostScript string // PostScript 名（name ID 6）
}

// Catalog 是已安装字体目录的能力接口：列举候选文件并提取其内部名字。
// 抽成接口是为了让解析算法与取数方式解耦（测试用内存目录，生产用文件系统）。
type Catalog interface {
	// CandidateFiles 返回按目录优先级排列的候选字体文件路径。
	CandidateFiles() []string
	// ExtractNames 解析单个字体文件的名字表；集合容器（.ttc）会展开全部子字体。
	// 无法解析时返回空切片。
	ExtractNames(path string) []Names
}

// 目录递归扫描的最大深度，与字体目录的常见组织层级一致。
const maxScanDepth = 3

// DirCatalog 扫描文件系统字体目录，是 Catalog 的缺省实现。
type DirCatalog struct {
	Dirs []string
}

// DefaultDirs 返回用户、共享、系统三级字体目录（macOS 与 Linux 的常见位置）。
// 不存在的目录在扫描时直接跳过。
func DefaultDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "Library", "Fonts"),
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		)
	}
	dirs = append(dirs,
		"/Library/Fonts",
		"/System/Library/Fonts",
		"/usr/local/share/fonts",
		"/usr/share/fonts",
	)
	return dirs
}

// NewDirCatalog 创建目录扫描器；dirs 为空时使用 DefaultDirs。
func NewDirCatalog(dirs ...string) *DirCatalog {
	if len(dirs) == 0 {
		dirs = DefaultDirs()
	}
	return &DirCatalog{Dirs: dirs}
}

// CandidateFiles 枚举所有目录下的 .ttf/.otf/.ttc 文件，无法访问的目录忽略。
func (c *DirCatalog) CandidateFiles() []string {
	var files []string
	for _, dir := range c.Dirs {
		files = append(files, collectFontFiles(dir, 0)...)
	}
	return files
}

func collectFontFiles(dir string, depth int) []string {
	if depth >= maxScanDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			files = append(files, collectFontFiles(full, depth+1)...)
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".ttf", ".otf", ".ttc":
			files = append(files, full)
		}
	}
	return files
}

// ExtractNames 直接解析字体文件的名字表。单字体与集合容器统一按集合处理，
// 逐个子字体读取家族名与 PostScript 名；读不出来的子字体跳过。
func (c *DirCatalog) ExtractNames(path string) []Names {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil
	}

	var out []Names
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		var buf sfnt.Buffer
		var n Names
		if v, err := f.Name(&buf, sfnt.NameIDFamily); err == nil {
			n.Family = v
		}
		if v, err := f.Name(&buf, sfnt.NameIDPostScript); err == nil {
			n.PostScript = v
		}
		if n.Family == "" && n.PostScript == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
