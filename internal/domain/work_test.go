package domain

import (
	"encoding/json"
	"testing"
)

func TestParseWorkID(t *testing.T) {
	cases := map[string]WorkID{
		"123456":     123456,
		"RJ123456":   123456,
		"rj01234567": 1234567,
		" 12345 ":    12345,
	}
	for in, want := range cases {
		got, err := ParseWorkID(in)
		if err != nil {
			t.Fatalf("ParseWorkID(%q) 不期望错误：%v", in, err)
		}
		if got != want {
			t.Fatalf("ParseWorkID(%q) 期望 %d，实际 %d", in, want, got)
		}
	}

	for _, in := range []string{"", "0", "RJ", "VJ123456", "12a", "-5"} {
		if _, err := ParseWorkID(in); err == nil {
			t.Fatalf("ParseWorkID(%q) 期望错误，但得到 nil", in)
		}
	}
}

func TestWorkID_RJCode_PadsWithoutTruncating(t *testing.T) {
	if got := WorkID(12345).RJCode(); got != "RJ012345" {
		t.Fatalf("期望 RJ012345，实际 %q", got)
	}
	if got := WorkID(1000000).RJCode(); got != "RJ1000000" {
		t.Fatalf("期望 RJ1000000，实际 %q", got)
	}
}

func TestWorkRecord_JSON_EmptyShapes(t *testing.T) {
	b, err := json.Marshal(NewWorkRecord(7))
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	want := `{"id":7,"title":"","circle":{},"nsfw":false,"release":"","tags":[],"vas":[]}`
	if string(b) != want {
		t.Fatalf("JSON 不符合预期：\n got=%s\nwant=%s", b, want)
	}
}

func TestCircle_JSON_NonZero(t *testing.T) {
	b, err := json.Marshal(Circle{ID: 12345, Name: "c"})
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if string(b) != `{"id":12345,"name":"c"}` {
		t.Fatalf("JSON 不符合预期：%s", b)
	}
}
