package buildinfo

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })

	if !Current().Dev() {
		t.Errorf("default stamp %+v is not a dev build", Current())
	}

	Version, Commit, Date = "v0.3.0", "1a2b3c", "2026-01-02T03:04:05Z"
	info := Current()
	if info.Dev() {
		t.Error("tagged build reported as dev")
	}
	if !strings.Contains(Template(), "v0.3.0") || !strings.HasPrefix(Template(), "{{.Name}} ") {
		t.Errorf("Template() = %q", Template())
	}

	raw, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"version":"v0.3.0","commit":"1a2b3c","built":"2026-01-02T03:04:05Z"}`
	if string(raw) != want {
		t.Errorf("json = %s, want %s", raw, want)
	}
}
