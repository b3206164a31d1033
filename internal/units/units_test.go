package units

import "testing"

func TestParseMillicores(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{"nanocores", "250000000n", 250, false},
		{"millicores", "500m", 500, false},
		{"whole cores", "2", 2000, false},
		{"empty", "", 0, true},
		{"garbage", "abc", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseMillicores(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got nil", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseMillicores(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{"bare bytes", "1024", 1024, false},
		{"kibibytes", "1Ki", 1024, false},
		{"mebibytes", "2Mi", 2 * (1 << 20), false},
		{"gigabytes decimal", "1G", 1e9, false},
		{"empty", "", 0, true},
		{"unrecognized suffix", "5Q", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBytes(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got nil", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseBytes(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
