package types

import (
	"fmt"
	"strings"
	"testing"
)

func TestHash_String(t *testing.T) {
	var h Hash
	if got := h.String(); got != strings.Repeat("0", 2*HashSize) {
		t.Errorf("zero hash String() = %s", got)
	}

	h[0], h[HashSize-1] = 0xab, 0x01
	want := "ab" + strings.Repeat("0", 2*HashSize-4) + "01"
	if got := h.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := fmt.Sprintf("%s", h); got != want {
		t.Errorf("%%s = %s, want %s", got, want)
	}
}
