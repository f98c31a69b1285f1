package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteEDN_Envelope(t *testing.T) {
	var buf bytes.Buffer
	v := Envelope{Data: map[string]any{"cursor": []string{"a", "b"}, "count": 2, "ok": true}}
	if err := Write(&buf, v, "edn", false); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(buf.String())
	want := `{:data {:count 2 :cursor ["a" "b"] :ok true}}`
	if got != want {
		t.Fatalf("edn = %s, want %s", got, want)
	}
}

func TestWriteEDN_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"xs": []any{}, "n": nil}, true); err != nil {
		t.Fatal(err)
	}
	want := "{\n  :n nil\n  :xs []\n}\n"
	if buf.String() != want {
		t.Fatalf("pretty edn = %q, want %q", buf.String(), want)
	}
}

func TestWrite_JSONOmitsEmptyAlert(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Envelope{Data: "x"}, "", false); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"data":"x"}` {
		t.Fatalf("json = %s", got)
	}
	if err := Write(&buf, nil, "yaml", false); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
