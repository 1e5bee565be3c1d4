package preview

import (
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"testing"

	hashdoc "github.com/logicossoftware/go-hashdoc"
)

func encode(t *testing.T, doc string) string {
	t.Helper()
	res, err := hashdoc.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	return res.Token
}

func TestFragmentFromURL(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://x.test/preview#abc", "abc", true},
		{"#abc", "abc", true},
		{"https://x.test/preview#a#b", "a#b", true},
		{"https://x.test/preview#", "", false},
		{"https://x.test/preview", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FragmentFromURL(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FragmentFromURL(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestLoad(t *testing.T) {
	doc := "<h1>Hello</h1><p>Grüße</p>"
	token := encode(t, doc)
	page, err := Load("https://x.test/preview#" + token)
	if err != nil {
		t.Fatal(err)
	}
	if page.HTML != doc || page.TokenLength != len(token) || page.Algorithm != hashdoc.AlgBrotli {
		t.Fatalf("got %+v", page)
	}
}

func TestLoad_NoContent(t *testing.T) {
	for _, raw := range []string{"https://x.test/preview", "https://x.test/preview#", ""} {
		_, err := Load(raw)
		if !errors.Is(err, ErrNoContent) {
			t.Fatalf("Load(%q): expected ErrNoContent, got %v", raw, err)
		}
		if errors.Is(err, ErrUndecodable) {
			t.Fatal("no content must not be reported as undecodable")
		}
	}
	if _, err := LoadToken(""); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestLoad_Undecodable(t *testing.T) {
	token := encode(t, strings.Repeat("<p>Hello</p>", 20))
	_, err := Load("#" + token[:len(token)-5])
	if !errors.Is(err, ErrUndecodable) || !errors.Is(err, hashdoc.ErrCorrupt) {
		t.Fatalf("expected ErrUndecodable wrapping ErrCorrupt, got %v", err)
	}
	if _, err := LoadToken("not a token"); !errors.Is(err, ErrUndecodable) {
		t.Fatalf("expected ErrUndecodable, got %v", err)
	}
}

func TestLoadToken_PercentEncoded(t *testing.T) {
	doc := "<p>escaped</p>"
	token := encode(t, doc)
	escaped := strings.ReplaceAll(url.PathEscape(token), "-", "%2D")
	page, err := LoadToken(escaped)
	if err != nil {
		t.Fatal(err)
	}
	if page.HTML != doc {
		t.Fatalf("got %q", page.HTML)
	}

	// Escaping the tag itself must not hide the algorithm.
	page, err = Load("https://x.test/preview#%" + strings.ToUpper(hex.EncodeToString([]byte{token[0]})) + token[1:])
	if err != nil {
		t.Fatal(err)
	}
	if page.Algorithm != hashdoc.AlgBrotli || page.TokenLength != len(token) || page.HTML != doc {
		t.Fatalf("got %+v", page)
	}
}

func TestLoad_DecodeLimits(t *testing.T) {
	token := encode(t, strings.Repeat("a", 1000))
	_, err := LoadToken(token, hashdoc.WithDecodeLimits(hashdoc.Limits{MaxDecodedSize: 10}))
	if !errors.Is(err, ErrUndecodable) || !errors.Is(err, hashdoc.ErrLimitExceeded) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestMessage(t *testing.T) {
	if Message(nil) != "" {
		t.Fatal("nil error must have no message")
	}
	if m := Message(ErrNoContent); !strings.HasPrefix(m, "No content found in URL") {
		t.Fatalf("got %q", m)
	}
	_, err := LoadToken("bAAAA")
	if m := Message(err); !strings.HasPrefix(m, "Failed to decode data") {
		t.Fatalf("got %q", m)
	}
	if m := Message(errors.New("other")); m != "Failed to decode content." {
		t.Fatalf("got %q", m)
	}
}

func TestSafeHTML(t *testing.T) {
	img := `<img src="data:image/png;base64,iVBORw0KGgo=" alt="x">`
	page := &Page{HTML: `<h2 style="text-align: center">Title</h2>` +
		`<p onclick="steal()">text <span style="color: #ff0000">red</span></p>` +
		`<script>alert(1)</script>` + img +
		`<a href="javascript:alert(1)">bad</a>`}
	got := page.SafeHTML()
	for _, bad := range []string{"<script", "alert(1)", "onclick", "javascript:"} {
		if strings.Contains(got, bad) {
			t.Fatalf("sanitized output contains %q:\n%s", bad, got)
		}
	}
	for _, keep := range []string{"<h2", "Title", "data:image/png;base64,iVBORw0KGgo=", "color: #ff0000", "red"} {
		if !strings.Contains(got, keep) {
			t.Fatalf("sanitized output lost %q:\n%s", keep, got)
		}
	}
}
