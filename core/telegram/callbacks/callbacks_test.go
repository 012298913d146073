package callbacks

import (
	"errors"
	"testing"
)

func TestParseData(t *testing.T) {
	for _, tc := range []struct {
		in, unique, payload string
	}{
		{"\fview|-1001", "view", "-1001"},
		{"\fmain", "main", ""},
		{"plain|x|y", "plain", "x|y"},
		{"", "", ""},
	} {
		u, p := ParseData(tc.in)
		if u != tc.unique || p != tc.payload {
			t.Fatalf("ParseData(%q) = %q,%q want %q,%q", tc.in, u, p, tc.unique, tc.payload)
		}
	}
}

func TestDecoder(t *testing.T) {
	d := Decoder[int64]{
		"num": ParseInt64,
		"one": func(string) (int64, error) { return 1, nil },
	}

	if v, err := d.DecodeData("num", "-42"); err != nil || v != -42 {
		t.Fatalf("num = %d, %v", v, err)
	}
	if v, err := d.DecodeData("one", ""); err != nil || v != 1 {
		t.Fatalf("one = %d, %v", v, err)
	}
	if _, err := d.DecodeData("num", "abc"); err == nil {
		t.Fatalf("expected error for non-numeric payload")
	}
	if _, err := d.DecodeData("nope", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("unknown key err = %v", err)
	}
}
