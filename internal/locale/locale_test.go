package locale

import "testing"

func TestSelect_KnownTags(t *testing.T) {
	for _, tag := range []Tag{JaJP, ZhTW, ZhCN} {
		p := Select(string(tag))
		if p.Tag != tag {
			t.Fatalf("Select(%q) 期望 tag=%q，实际=%q", tag, tag, p.Tag)
		}
		if p.Cookie != "locale="+string(tag) {
			t.Fatalf("Select(%q) cookie 不符合预期：%q", tag, p.Cookie)
		}
		for name, v := range map[string]string{
			"age":     p.AgeRatingLabel,
			"genre":   p.GenreLabel,
			"va":      p.VALabel,
			"release": p.ReleaseLabel,
			"adult":   p.AdultMarker,
		} {
			if v == "" {
				t.Fatalf("Select(%q) 的 %s 标签为空", tag, name)
			}
		}
	}
}

func TestSelect_LabelsDistinctAcrossLocales(t *testing.T) {
	all := All()
	labels := []func(Profile) string{
		func(p Profile) string { return p.AgeRatingLabel },
		func(p Profile) string { return p.GenreLabel },
		func(p Profile) string { return p.VALabel },
		func(p Profile) string { return p.ReleaseLabel },
	}
	for li, get := range labels {
		seen := map[string]Tag{}
		for _, p := range all {
			v := get(p)
			if prev, ok := seen[v]; ok {
				t.Fatalf("标签 #%d 在 %q 与 %q 之间重复：%q", li, prev, p.Tag, v)
			}
			seen[v] = p.Tag
		}
	}
}

func TestSelect_UnknownFallsBackToDefault(t *testing.T) {
	def := Select(string(Default))
	for _, in := range []string{"", "en-us", "ko", "zh-hk", "!!", "ja"} {
		if got := Select(in); got != def {
			t.Fatalf("Select(%q) 期望默认 profile（%q），实际 %q", in, def.Tag, got.Tag)
		}
	}
	if Default != ZhCN {
		t.Fatalf("默认 locale 应为 zh-cn，实际 %q", Default)
	}
}

func TestSelect_CaseAndSeparatorInsensitive(t *testing.T) {
	cases := map[string]Tag{
		"JA-JP": JaJP,
		"ja_JP": JaJP,
		"zh_tw": ZhTW,
		"ZH-CN": ZhCN,
	}
	for in, want := range cases {
		if got := Select(in).Tag; got != want {
			t.Fatalf("Select(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}
