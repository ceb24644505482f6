package dict

import "testing"

func TestNormalizeLowercaseASCII(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"AVENUE", "avenue"},
		{"Allée", "allee"},
		{"Chaussée", "chaussee"},
		{"PLAÇA", "placa"},
		{"Ñuñoa", "nunoa"},
		{"", ""},
		{"street", "street"},
	}
	for _, tt := range tests {
		got := NormalizeLowercaseASCII(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeLowercaseASCII(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeLowercaseUTF8(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"AVENUE", "avenue"},
		{"Allée", "allée"},
		{"STRASSE", "strasse"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizeLowercaseUTF8(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeLowercaseUTF8(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeFold(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"ＳＴ．", "st."},
		{"１２３", "123"},
		{"Ⅻ", "xii"},
		{"ＡＶＥＮＵＥ Ｄ", "avenue d"},
		{"ﬁfth", "fifth"},
	}
	for _, tt := range tests {
		got := NormalizeFold(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeFold(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeNone(t *testing.T) {
	for _, input := range []string{"AVENUE", "Allée", "Straße", ""} {
		if got := NormalizeNone(input); got != input {
			t.Errorf("NormalizeNone(%q) = %q, want unchanged", input, got)
		}
	}
}

func TestGetNormalizer(t *testing.T) {
	tests := []struct {
		mode  string
		input string
		want  string
	}{
		{"lowercase_ascii", "Allée", "allee"},
		{"lowercase_utf8", "Allée", "allée"},
		{"fold", "Ａllée", "allee"},
		{"none", "Allée", "Allée"},
		{"", "Allée", "allee"},             // default = lowercase_ascii
		{"unknown_mode", "Allée", "allee"}, // fallback = lowercase_ascii
	}
	for _, tt := range tests {
		got := GetNormalizer(tt.mode)(tt.input)
		if got != tt.want {
			t.Errorf("GetNormalizer(%q)(%q) = %q, want %q", tt.mode, tt.input, got, tt.want)
		}
	}
}
