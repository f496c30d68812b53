package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"rus", "ru"},
		{"nor", "nb"},
		{"english", "en"},
		{"Russian", "ru"},
		{"en-GB", "en"},
		{"pt_BR", "pt"},
		{"xy", "xy"},
		{"xyz", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDeepLTarget(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"RU", "RU"},
		{"ru", "RU"},
		{"russian", "RU"},
		{"de", "DE"},
		{"en", "EN-US"},
		{"EN-GB", "EN-GB"},
		{"en_gb", "EN-GB"},
		{"pt", "PT-PT"},
		{"pt-BR", "PT-BR"},
		{"zh", "ZH"},
		{"zh-Hant", "ZH-HANT"},
		{"no", "NB"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := DeepLTarget(tt.input)
			if err != nil {
				t.Fatalf("DeepLTarget(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("DeepLTarget(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDeepLTargetRejectsUnsupported(t *testing.T) {
	for _, input := range []string{"", "hi", "hindi", "KLINGON", "xx"} {
		if got, err := DeepLTarget(input); err == nil {
			t.Errorf("DeepLTarget(%q) = %q, expected error", input, got)
		}
	}
}

func TestDeepLSourceDropsRegion(t *testing.T) {
	got, err := DeepLSource("en-GB")
	if err != nil {
		t.Fatalf("DeepLSource returned error: %v", err)
	}
	if got != "EN" {
		t.Fatalf("DeepLSource(en-GB) = %q, want EN", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ru", "Russian"},
		{"EN-US", "English"},
		{"", "Unknown"},
		{"xyz", "XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
