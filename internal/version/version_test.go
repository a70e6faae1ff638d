package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "treenav "+Version) {
		t.Errorf("String() = %q, want prefix %q", s, "treenav "+Version)
	}
}
