package textutil

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and collapses", "  Main   Street\tShop ", "Main Street Shop"},
		{"composes nfd", "Café", "Café"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.in); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTitleName(t *testing.T) {
	if got := TitleName("harbor mall"); got != "Harbor Mall" {
		t.Errorf("TitleName lower = %q", got)
	}
	if got := TitleName("IKEA Harbor"); got != "IKEA Harbor" {
		t.Errorf("TitleName should keep mixed case, got %q", got)
	}
}

func TestNameKeyStableAcrossForms(t *testing.T) {
	variants := []string{"Магазин Центр", "магазин  центр", "МАГАЗИН-ЦЕНТР"}
	want := NameKey(variants[0])
	for _, v := range variants[1:] {
		if got := NameKey(v); got != want {
			t.Errorf("NameKey(%q) = %q, want %q", v, got, want)
		}
	}
	if want != "магазин_центр" {
		t.Errorf("unexpected key %q", want)
	}
}

func TestNameKeyComposedAndDecomposed(t *testing.T) {
	if NameKey("Café") != NameKey("CAFÉ") {
		t.Errorf("expected NFC/NFD forms to share a key: %q vs %q", NameKey("Café"), NameKey("CAFÉ"))
	}
}

func TestNameKeyEmpty(t *testing.T) {
	if got := NameKey(" -- "); got != "unknown" {
		t.Errorf("NameKey(separators) = %q, want unknown", got)
	}
}
