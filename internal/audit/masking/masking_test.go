package masking

import "testing"

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"abc":                "****",
		"9876543210":         "****3210",
		"pay_29QQoUBi66xm2f": "pay_****xm2f",
		"  a1b2c3d4e5f6  ":   "****e5f6",
		"trailing_":          "****ing_",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
