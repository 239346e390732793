package extract

import (
	"errors"
	"testing"
	"time"

	"anistream/internal/apperr"
)

func TestForServer(t *testing.T) {
	set := NewSet(Options{Timeout: time.Second})

	for _, name := range []string{"HD-1", "HD-2", "HD-3"} {
		ext, err := set.ForServer(name)
		if err != nil {
			t.Fatalf("ForServer(%q): %v", name, err)
		}
		if _, ok := ext.(*MegaCloud); !ok {
			t.Errorf("ForServer(%q) = %T, want *MegaCloud", name, ext)
		}
	}

	ext, err := set.ForServer("StreamTape")
	if err != nil {
		t.Fatalf("ForServer(StreamTape): %v", err)
	}
	if _, ok := ext.(*StreamTape); !ok {
		t.Errorf("ForServer(StreamTape) = %T, want *StreamTape", ext)
	}
}

func TestForServerUnknown(t *testing.T) {
	set := NewSet(Options{Timeout: time.Second})

	// Dispatch is exact; lowercase names were validated upstream already.
	for _, name := range []string{"hd-1", "Vidstreaming", ""} {
		if _, err := set.ForServer(name); !errors.Is(err, apperr.ErrInvalidParameter) {
			t.Errorf("ForServer(%q) err = %v, want invalid parameter", name, err)
		}
	}
}
