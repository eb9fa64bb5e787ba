package model

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"whole number", "99.00", 9900},
		{"with paise", "123.45", 12345},
		{"zero", "0.00", 0},
		{"empty string", "", 0},
		{"large value", "1234567.89", 123456789},
		{"no decimals", "100", 10000},
		{"one decimal", "99.9", 9990},
		{"small value", "0.01", 1},
		{"invalid string", "abc", 0},
		{"surrounding whitespace", " 270 ", 27000},
		{"sub-paise rounds", "10.005", 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.input)
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromMajor(t *testing.T) {
	tests := []struct {
		input float64
		want  int64
	}{
		{0, 0},
		{90, 9000},
		{270.5, 27050},
		{0.1, 10},
		{19.99, 1999},
	}

	for _, tt := range tests {
		if got := FromMajor(tt.input); got != tt.want {
			t.Errorf("FromMajor(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0.00"},
		{27000, "270.00"},
		{1999, "19.99"},
		{5, "0.05"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.input); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
