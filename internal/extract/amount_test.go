package extract

import "testing"

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"€1.234,56", "1234.56"},
		{"1.000,00 €", "1000.00"},
		{"240,00 €", "240.00"},
		{"1 234,56 EUR", "1234.56"},
		{"1,234.56", "1234.56"},
		{"500.00", "500.00"},
		{"1000", "1000.00"},
		{"-50,00", "-50.00"},
	}
	for _, tc := range cases {
		got, err := NormalizeAmount(tc.in)
		if err != nil {
			t.Errorf("NormalizeAmount(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeAmount(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAmount_NoNumericContent(t *testing.T) {
	for _, in := range []string{"", "free", "€"} {
		if _, err := NormalizeAmount(in); err == nil {
			t.Errorf("NormalizeAmount(%q) should fail", in)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"2024/03/15", "2024-03-15", true},
		{"15/03/2024", "2024-03-15", true},
		{"15-03-2024", "2024-03-15", true},
		{"2024-03-15T10:30:00", "2024-03-15", true},
		{"Mon, 18 Mar 2024 10:30:00 +0200", "2024-03-18", true},
		{"sometime soon", "sometime soon", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
