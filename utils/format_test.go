package utils

import (
	"testing"
	"time"
)

func TestFormatEta(t *testing.T) {
	cases := map[int]string{
		0:   "1 minute",
		1:   "1 minute",
		5:   "5 minutes",
		59:  "59 minutes",
		60:  "1h 0m",
		135: "2h 15m",
	}
	for in, want := range cases {
		if got := FormatEta(in); got != want {
			t.Errorf("FormatEta(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{10 * time.Second, "1m"},
		{29 * time.Minute, "29m"},
		{60 * time.Minute, "1h"},
		{90 * time.Minute, "1h 30m"},
		{-time.Minute, "1m"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
