package fonts

import "testing"

// fakeCatalog 是内存字体目录，测试解析算法时无需真实文件系统。
type fakeCatalog struct {
	files []string
	names map[string][]Names
}

func (c *fakeCatalog) CandidateFiles() []string { return c.files }

func (c *fakeCatalog) ExtractNames(path string) []Names { return c.names[path] }

// TestResolveAliasFirst 验证缺省查找顺序：别名表命中时不再扫描目录。
func TestResolveAliasFirst(t *testing.T) {
	r := &Resolver{
		Catalog: &fakeCatalog{
			files: []string{"/fonts/Yuanti TC.ttc"},
			names: map[string][]Names{
				"/fonts/Yuanti TC.ttc": {{Family: "Yuanti TC", PostScript: "FromCatalog"}},
			},
		},
		Aliases: DefaultAliases,
	}
	if got := r.Resolve("Yuanti TC Bold"); got != "STYuanti-TC-Bold" {
		t.Fatalf("别名表应优先: got=%q", got)
	}
	if got := r.Resolve("Baoli SC"); got != "STBaoliSC-Regular" {
		t.Fatalf("别名解析错误: got=%q", got)
	}
}

// TestResolvePreferCatalog 验证精确路径：目录证据强于别名表。
func TestResolvePreferCatalog(t *testing.T) {
	r := &Resolver{
		Catalog: &fakeCatalog{
			files: []string{"/fonts/Yuanti TC.ttc"},
			names: map[string][]Names{
				"/fonts/Yuanti TC.ttc": {{Family: "Yuanti TC", PostScript: "FromCatalog"}},
			},
		},
		Aliases:       DefaultAliases,
		PreferCatalog: true,
	}
	if got := r.Resolve("Yuanti TC"); got != "FromCatalog" {
		t.Fatalf("PreferCatalog 下目录应优先: got=%q", got)
	}
	// 目录没有的名字仍退回别名表
	if got := r.Resolve("Baoli SC"); got != "STBaoliSC-Regular" {
		t.Fatalf("目录未命中应退回别名: got=%q", got)
	}
}

// TestResolveFileNameMatch 验证文件名精确匹配与包含匹配，精确排前。
func TestResolveFileNameMatch(t *testing.T) {
	r := &Resolver{
		Catalog: &fakeCatalog{
			files: []string{"/a/PingFangSC-Light.ttf", "/a/PingFang.ttc"},
			names: map[string][]Names{
				"/a/PingFangSC-Light.ttf": {{Family: "PingFang SC", PostScript: "PingFangSC-Light"}},
				"/a/PingFang.ttc":         {{Family: "PingFang SC", PostScript: "PingFangSC-Regular"}},
			},
		},
		Aliases: map[string]string{},
	}
	// 精确文件名 PingFang.ttc 的内部名胜出
	if got := r.Resolve("PingFang"); got != "PingFangSC-Regular" {
		t.Fatalf("精确文件名应排前: got=%q", got)
	}
}

// TestResolveMetadataMatch 验证按内部名字表匹配，以及 1.5 倍长度护栏：
// 家族名过长时不接受包含匹配。
func TestResolveMetadataMatch(t *testing.T) {
	r := &Resolver{
		Catalog: &fakeCatalog{
			files: []string{"/a/f1.otf", "/a/f2.otf"},
			names: map[string][]Names{
				"/a/f1.otf": {{Family: "Source Han Sans", PostScript: "SourceHanSans-Regular"}},
				"/a/f2.otf": {{Family: "SongTiFamilyExtraLongVariant", PostScript: "SongTi-XL"}},
			},
		},
		Aliases: map[string]string{},
	}
	if got := r.Resolve("Source Han Sans"); got != "SourceHanSans-Regular" {
		t.Fatalf("家族名精确匹配失败: got=%q", got)
	}
	// "Song" 包含于超长家族名，但超出 1.5 倍护栏，应落到合成猜测
	if got := r.Resolve("Song"); got != Synthesized("Song") {
		t.Fatalf("超长家族名不应包含匹配: got=%q", got)
	}
	// 护栏内的包含匹配可接受："Source Han" (10) × 1.5 = 15 ≥ len("Source Han Sans")
	if got := r.Resolve("Source Han"); got != "SourceHanSans-Regular" {
		t.Fatalf("护栏内包含匹配失败: got=%q", got)
	}
}

// TestResolveTotal 验证解析是全函数：空目录、空别名也有合成结果。
func TestResolveTotal(t *testing.T) {
	r := &Resolver{Catalog: &fakeCatalog{}, Aliases: map[string]string{}}
	got := r.Resolve("Totally Unknown Font")
	want := "TotallyUnknownFont-Regular"
	if got != want {
		t.Fatalf("合成猜测错误: got=%q want=%q", got, want)
	}
	if !IsSynthesized("Totally Unknown Font", got) {
		t.Fatalf("IsSynthesized 应识别合成结果")
	}
	if IsSynthesized("Yuanti TC", "STYuanti-TC-Regular") {
		t.Fatalf("真实解析结果不应判为合成")
	}
}

// TestResolveCached 验证结果按显示名缓存：目录变化后仍返回首次结果。
func TestResolveCached(t *testing.T) {
	cat := &fakeCatalog{
		files: []string{"/a/Foo.ttf"},
		names: map[string][]Names{"/a/Foo.ttf": {{Family: "Foo", PostScript: "Foo-Regular"}}},
	}
	r := &Resolver{Catalog: cat, Aliases: map[string]string{}}
	first := r.Resolve("Foo")
	cat.names["/a/Foo.ttf"] = []Names{{Family: "Foo", PostScript: "Changed"}}
	if got := r.Resolve("Foo"); got != first {
		t.Fatalf("缓存未生效: first=%q got=%q", first, got)
	}
}

// TestSynthesized 验证合成公式：去空白 + -Regular。
func TestSynthesized(t *testing.T) {
	cases := map[string]string{
		"Yuanti TC":   "YuantiTC-Regular",
		"A B C":       "ABC-Regular",
		"NoSpace":     "NoSpace-Regular",
		"Source  Han": "SourceHan-Regular",
	}
	for in, want := range cases {
		if got := Synthesized(in); got != want {
			t.Fatalf("Synthesized(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}

// TestFileFor 验证栅格管线的文件查找：文件名优先，其次内部名，找不到报 false。
func TestFileFor(t *testing.T) {
	r := &Resolver{
		Catalog: &fakeCatalog{
			files: []string{"/a/Arial.ttf", "/a/deja.ttf"},
			names: map[string][]Names{
				"/a/Arial.ttf": {{Family: "Arial", PostScript: "ArialMT"}},
				"/a/deja.ttf":  {{Family: "DejaVu Sans", PostScript: "DejaVuSans"}},
			},
		},
		Aliases: map[string]string{},
	}
	if path, ok := r.FileFor("Arial"); !ok || path != "/a/Arial.ttf" {
		t.Fatalf("文件名匹配失败: path=%q ok=%v", path, ok)
	}
	if path, ok := r.FileFor("DejaVu Sans"); !ok || path != "/a/deja.ttf" {
		t.Fatalf("内部名匹配失败: path=%q ok=%v", path, ok)
	}
	if _, ok := r.FileFor("Missing"); ok {
		t.Fatalf("不存在的字体不应命中")
	}
	if _, ok := r.FileFor("  "); ok {
		t.Fatalf("空白名不应命中")
	}
}
