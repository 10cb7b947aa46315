package domain

import (
	"encoding/json"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"":         1,
		"abc":      1,
		"0":        1,
		"  7 ":     7,
		"3abc":     3,
		"+4":       4,
		"-2":       1,
		"12":       10,
		"10":       10,
		"2.9":      2,
		"99999999": 10,
		"-":        1,
	}
	for input, want := range cases {
		if got := ParseQuantity(input); got != want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestSizeLookups(t *testing.T) {
	if got := SizeName("XXL"); got != "Extra Extra Large" {
		t.Fatalf("unexpected full name %q", got)
	}
	if got := SizeName("XXXL"); got != "XXXL" {
		t.Fatalf("unknown codes should pass through, got %q", got)
	}
	code, ok := SizeCode("Medium")
	if !ok || code != "M" {
		t.Fatalf("expected M, got %q %v", code, ok)
	}
	if _, ok := SizeCode("M"); ok {
		t.Fatalf("codes are not full names")
	}
}

func TestColorLookups(t *testing.T) {
	hex, ok := ColorHex("Maroon")
	if !ok || hex != "#800000" {
		t.Fatalf("unexpected hex %q", hex)
	}
	if !ColorNeedsBorder("Cream White") || ColorNeedsBorder("Maroon") {
		t.Fatalf("only cream white carries a border")
	}
}

func TestPreferencesJSONOmitsAbsentFields(t *testing.T) {
	color := "Maroon"
	raw, err := json.Marshal(Preferences{SelectedColor: &color})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"selectedColor":"Maroon"}` {
		t.Fatalf("unexpected json %s", raw)
	}

	raw, err = json.Marshal(PreferencesFromState(DefaultSessionState()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"selectedColor":"Royal Blue","selectedSize":"Medium","quantity":1,"cartCount":0}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}
