package identity

import "testing"

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "   ", want: ""},
		{in: "0712345678", want: "0712345678"},
		{in: " +254 712-345-678 ", want: "+254712345678"},
		{in: "(071) 234.5678", want: "0712345678"},
		{in: "07+12", want: "0712"},
	}

	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}
