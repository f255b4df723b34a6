package sanitize_test

import (
	"strings"
	"testing"

	"github.com/fieldops/movelog/internal/app/system/sanitize"
)

func TestText_Plain(t *testing.T) {
	if got := sanitize.Text("Site inspection, Zone 4"); got != "Site inspection, Zone 4" {
		t.Errorf("plain text changed: %q", got)
	}
}

func TestText_StripsTags(t *testing.T) {
	got := sanitize.Text(`<script>alert(1)</script>visit <b>branch</b>`)
	if strings.Contains(got, "<") {
		t.Errorf("expected all tags removed, got %q", got)
	}
	if !strings.Contains(got, "visit") || !strings.Contains(got, "branch") {
		t.Errorf("expected text content preserved, got %q", got)
	}
}

func TestRich_KeepsFormatting(t *testing.T) {
	in := "<p><strong>Step 1:</strong> reset the unit</p>"
	if got := sanitize.Rich(in); got != in {
		t.Errorf("safe formatting altered: %q", got)
	}
}

func TestRich_RemovesScript(t *testing.T) {
	got := sanitize.Rich(`<p>ok</p><script>alert(1)</script>`)
	if strings.Contains(got, "script") {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestRich_RemovesJavascriptHref(t *testing.T) {
	got := sanitize.Rich(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript href removed, got %q", got)
	}
}
