package login

import "testing"

func TestDetector_IsComplete(t *testing.T) {
	d := NewDetector("https://canvas.asu.edu")
	tests := []struct {
		url  string
		want bool
	}{
		{"https://canvas.asu.edu/dashboard", true},
		{"https://canvas.asu.edu", true},
		{"http://canvas.asu.edu", false},
		{"https://evil.example.com/canvas.asu.edu", false},
		{"HTTPS://canvas.asu.edu/", false},
		{"https://weblogin.asu.edu/cas/login?service=https://canvas.asu.edu", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := d.IsComplete(tt.url); got != tt.want {
				t.Errorf("IsComplete(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
