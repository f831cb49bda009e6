package browser

import (
	"strings"
	"testing"
)

func TestLocatorIsXPath(t *testing.T) {
	tests := []struct {
		sel  string
		want bool
	}{
		{"//button[@aria-label='Laman berikutnya']", true},
		{"(//article)[1]", true},
		{"button[aria-label='Laman berikutnya']", false},
		{".css-11hzwo5", false},
	}
	for _, tt := range tests {
		if got := CSS(tt.sel).IsXPath(); got != tt.want {
			t.Errorf("IsXPath(%q) = %v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestLocatorString(t *testing.T) {
	l := Locator{Selector: ".css-11hzwo5", Child: "button"}
	if l.String() != ".css-11hzwo5 >> button" {
		t.Errorf("unexpected String: %q", l.String())
	}
}

func TestProbeOK(t *testing.T) {
	if !(Probe{Outcome: Found}).OK() {
		t.Error("Found probe should be OK")
	}
	if (Probe{Outcome: NotFound}).OK() {
		t.Error("NotFound probe should not be OK")
	}
	if NotFound.String() != "not_found" {
		t.Errorf("Outcome string = %q", NotFound.String())
	}
}

func TestStealthJS(t *testing.T) {
	sc := DefaultStealthConfig("", "Asia/Jakarta")
	js := sc.StealthJS()
	if !strings.HasPrefix(js, "(() => {") || !strings.HasSuffix(strings.TrimSpace(js), "})();") {
		t.Errorf("stealth script must invoke itself, got %.40q", js)
	}
	if !strings.Contains(js, "'id-ID'") {
		t.Error("expected default id-ID language in script")
	}
	if sc.HardwareConcurrency < 4 || sc.HardwareConcurrency > 12 {
		t.Errorf("hardware concurrency out of range: %d", sc.HardwareConcurrency)
	}
}
