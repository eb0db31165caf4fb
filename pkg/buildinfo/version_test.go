package buildinfo

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	if got := Current().Version; got != "v1.2.3" {
		t.Errorf("Current().Version = %q, want %q", got, "v1.2.3")
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.Contains(tmpl, "{{.Name}}") {
		t.Errorf("Template() should reference the command name: %q", tmpl)
	}
	if !strings.Contains(tmpl, Commit) {
		t.Errorf("Template() should include the commit: %q", tmpl)
	}
}
