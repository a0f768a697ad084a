package fonts

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultAliases 是已知显示名到 PostScript 名的静态别名表。
// 作为进程级只读配置加载一次，运行期不修改。
var DefaultAliases = map[string]string{
	"Yuanti TC":       "STYuanti-TC-Regular",
	"Yuanti TC Light": "STYuanti-TC-Light",
	"Yuanti TC Bold":  "STYuanti-TC-Bold",
	"Baoli SC":        "STBaoliSC-Regular",
}

// Resolver 把字体显示名解析为 PostScript 名。解析是全函数：任何非空输入
// 都会得到非空结果，最坏情况返回合成猜测（Synthesized 公式）。
//
// 查找顺序有两种，二者都保证文件名精确匹配强于别名猜测：
//   - 缺省（快速路径）：别名表 → 目录文件名匹配 → 目录内部元数据匹配 → 合成；
//   - PreferCatalog（精确路径）：目录文件名匹配 → 目录内部元数据匹配 → 别名表 → 合成。
type Resolver struct {
	Catalog       Catalog
	Aliases       map[string]string
	PreferCatalog bool

	mu    sync.Mutex
	cache map[string]string
	files []string // 候选文件列表，首次使用时扫描一次
}

// NewResolver 创建使用缺省目录扫描与缺省别名表的解析器。
func NewResolver() *Resolver {
	return &Resolver{Catalog: NewDirCatalog(), Aliases: DefaultAliases}
}

// Synthesized 返回找不到字体时的合成猜测：去掉空白后接 -Regular 后缀。
// 调用方可用 IsSynthesized 判断解析结果是否只是猜测。
func Synthesized(displayName string) string {
	return strings.ReplaceAll(displayName, " ", "") + "-Regular"
}

// IsSynthesized 报告 identity 是否为 displayName 的未经验证的合成猜测。
func IsSynthesized(displayName, identity string) bool {
	return identity == Synthesized(displayName)
}

// Resolve 解析显示名，永不失败。并发安全，结果按显示名缓存。
func (r *Resolver) Resolve(displayName string) string {
	name := strings.TrimSpace(displayName)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.cache[name]; ok {
		return id
	}
	id := r.resolveLocked(name)
	if r.cache == nil {
		r.cache = map[string]string{}
	}
	r.cache[name] = id
	return id
}

func (r *Resolver) resolveLocked(name string) string {
	if !r.PreferCatalog {
		if id, ok := r.aliases()[name]; ok {
			return id
		}
	}

	if id := r.lookupCatalog(name); id != "" {
		return id
	}

	if r.PreferCatalog {
		if id, ok := r.aliases()[name]; ok {
			return id
		}
	}

	guess := Synthesized(name)
	log.Printf("fonts: 未找到字体 %q，使用合成的 PostScript 名 %q（未经验证）", name, guess)
	return guess
}

func (r *Resolver) aliases() map[string]string {
	if r.Aliases != nil {
		return r.Aliases
	}
	return DefaultAliases
}

// lookupCatalog 在已安装字体目录中查找。文件名匹配（精确优先于包含）
// 是最强证据；其次打开文件比对内部名字表。
func (r *Resolver) lookupCatalog(name string) string {
	if name == "" {
		return ""
	}
	for _, path := range r.matchByFileName(name) {
		for _, n := range r.catalog().ExtractNames(path) {
			if n.PostScript != "" {
				return n.PostScript
			}
		}
		// 文件名命中但名字表读不出来：退回别名表（与文件名证据等价时别名可信）
		if id, ok := r.aliases()[name]; ok {
			return id
		}
	}
	return r.matchByMetadata(name)
}

// matchByFileName 返回文件名与显示名精确或包含匹配的候选文件，精确匹配排前。
func (r *Resolver) matchByFileName(name string) []string {
	var exact, contains []string
	for _, path := range r.candidateFiles() {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if base == name {
			exact = append(exact, path)
		} else if strings.Contains(base, name) {
			contains = append(contains, path)
		}
	}
	return append(exact, contains...)
}

// matchByMetadata 打开每个候选文件比对家族名/PostScript 名。
// 包含匹配只在家族名不超过查询串 1.5 倍长度时接受，避免
// 「Song」误中「SongTiFamilyExtraLongVariant」这类超长家族名。
func (r *Resolver) matchByMetadata(name string) string {
	var contained string
	for _, path := range r.candidateFiles() {
		for _, n := range r.catalog().ExtractNames(path) {
			if n.Family == name || n.PostScript == name {
				return n.PostScript
			}
			if contained == "" && n.Family != "" &&
				strings.Contains(n.Family, name) &&
				float64(len(n.Family)) <= float64(len(name))*1.5 {
				contained = n.PostScript
			}
		}
	}
	return contained
}

// FileFor 返回显示名对应的字体文件路径，供栅格管线加载真实字形。
// 查找顺序与 Resolve 的目录扫描一致；找不到时 ok 为 false。
func (r *Resolver) FileFor(displayName string) (string, bool) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if paths := r.matchByFileName(name); len(paths) > 0 {
		return paths[0], true
	}
	for _, path := range r.candidateFiles() {
		for _, n := range r.catalog().ExtractNames(path) {
			if n.Family == name || n.PostScript == name {
				return path, true
			}
		}
	}
	return "", false
}

func (r *Resolver) catalog() Catalog {
	if r.Catalog != nil {
		return r.Catalog
	}
	return NewDirCatalog()
}

func (r *Resolver) candidateFiles() []string {
	if r.files == nil {
		r.files = r.catalog().CandidateFiles()
		if r.files == nil {
			r.files = []string{}
		}
	}
	return r.files
}
