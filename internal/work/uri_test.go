package work

import "testing"

func TestEncodeURI(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://example.com/a.png", "http://example.com/a.png"},
		{"http://example.com/a b.png", "http://example.com/a%20b.png"},
		{"http://example.com/a%20b.png", "http://example.com/a%20b.png"},
		{"http://example.com/100%.png", "http://example.com/100%25.png"},
		{"http://example.com/%zz", "http://example.com/%25zz"},
		{"http://example.com/?q=1&r=[2]", "http://example.com/?q=1&r=%5B2%5D"},
		{"http://example.com/ü", "http://example.com/%C3%BC"},
		{"http://example.com/#frag", "http://example.com/#frag"},
		{"", ""},
	}

	for _, tt := range tests {
		result := EncodeURI(tt.input)
		if result != tt.expected {
			t.Errorf("EncodeURI(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
