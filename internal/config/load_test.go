package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCUEFlattensNestedFields(t *testing.T) {
	path := writeConfig(t, "glossa.cue", `{
  annotators: ["tokenize", "ssplit", "pos"]
  threads: 4
  enforceRequirements: false
  pos: model: "default"
  "coref.md.type": "rule"
  customAnnotatorClass: shout: "lua"
}
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string]string{
		"annotators":                 "tokenize,ssplit,pos",
		"threads":                    "4",
		"enforceRequirements":        "false",
		"pos.model":                  "default",
		"coref.md.type":              "rule",
		"customAnnotatorClass.shout": "lua",
	}
	for k, v := range want {
		if got, _ := p.Lookup(k); got != v {
			t.Fatalf("%s: got %q want %q", k, got, v)
		}
	}
	if p.Threads() != 4 || p.EnforceRequirements() {
		t.Fatalf("typed accessors: threads=%d enforce=%v", p.Threads(), p.EnforceRequirements())
	}
}

func TestLoadYAMLFlattensNestedFields(t *testing.T) {
	path := writeConfig(t, "glossa.yaml", `annotators: tokenize,ssplit
ssplit:
  newlineIsSentenceBreak: always
regexner:
  ignorecase: true
timeout: 250ms
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := p.Get("ssplit.newlineIsSentenceBreak", ""); got != "always" {
		t.Fatalf("ssplit key: %q", got)
	}
	if !p.Bool("regexner.ignorecase", false) {
		t.Fatalf("expected regexner.ignorecase true")
	}
	d, err := p.Timeout()
	if err != nil || d.Milliseconds() != 250 {
		t.Fatalf("timeout: %v %v", d, err)
	}
	if got := strings.Join(p.Annotators(), "|"); got != "tokenize|ssplit" {
		t.Fatalf("annotators: %q", got)
	}
}

func TestLoadProperties(t *testing.T) {
	path := writeConfig(t, "glossa.properties", "annotators = tokenize, ssplit, pos\npos.model = default\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(p.Annotators(), ","); got != "tokenize,ssplit,pos" {
		t.Fatalf("annotators: %q", got)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "glossa.toml", "annotators = 'tokenize'\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for .toml")
	}
}

func TestLoadCUEInvalid(t *testing.T) {
	path := writeConfig(t, "bad.cue", "{ annotators: \n")
	_, err := Load(path)
	if err == nil || !strings.HasPrefix(err.Error(), "invalid config:") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}
