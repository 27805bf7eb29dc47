package hvdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/John-Robertt/dlmeta/internal/domain"
	providerx "github.com/John-Robertt/dlmeta/internal/provider"
)

func TestParse_FromFixture(t *testing.T) {
	html, err := os.ReadFile(filepath.Join("testdata", "work_12345.html"))
	if err != nil {
		t.Fatalf("读取 fixture 失败：%v", err)
	}

	vas, err := Provider{}.Parse(html)
	if err != nil {
		t.Fatalf("Parse 失败：%v", err)
	}
	want := []domain.VA{
		{ID: 1021, Name: "田中"},
		{ID: 77, Name: "Smith"},
		{ID: 5, Name: "かの仔"},
	}
	if !reflect.DeepEqual(vas, want) {
		t.Fatalf("vas 不符合预期：%+v", vas)
	}
}

func TestParse_NoCV_EmptyNotError(t *testing.T) {
	vas, err := Provider{}.Parse([]byte(`<html><body><a href="/Tag/TagWorks/3">ASMR</a></body></html>`))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if vas == nil || len(vas) != 0 {
		t.Fatalf("期望非 nil 空切片：%#v", vas)
	}
}

func TestLookupVAs_HTTP(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`<a href="/CV/CVInfo/9">沢野ぽぷら</a>`))
	}))
	defer srv.Close()

	vas, err := Provider{BaseURL: srv.URL + "/"}.LookupVAs(context.Background(), 12345, srv.Client())
	if err != nil {
		t.Fatalf("LookupVAs 失败：%v", err)
	}
	if gotPath != "/Dashboard/WorkDetails/12345" {
		t.Fatalf("请求路径不符合预期：%q", gotPath)
	}
	if len(vas) != 1 || vas[0] != (domain.VA{ID: 9, Name: "沢野ぽぷら"}) {
		t.Fatalf("vas 不符合预期：%+v", vas)
	}
}

func TestLookupVAs_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Provider{BaseURL: srv.URL}.LookupVAs(context.Background(), 1, srv.Client())
	var se *providerx.HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("期望 503 HTTPStatusError，实际 %v", err)
	}
	if !strings.Contains(err.Error(), "/Dashboard/WorkDetails/1") {
		t.Fatalf("错误信息应包含 URL：%q", err.Error())
	}
}

func TestTrailingInt(t *testing.T) {
	cases := map[string]int64{
		"https://hvdb.me/CV/CVInfo/1021": 1021,
		"/CV/CVInfo/77/":                 77,
		"/CV/CVInfo/5?tab=works":         5,
		"/CV/CVInfo/x":                   0,
		"":                               0,
	}
	for in, want := range cases {
		if got := trailingInt(in); got != want {
			t.Fatalf("trailingInt(%q) 期望 %d，实际 %d", in, want, got)
		}
	}
}
