package security

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "I feel anxious about my marriage", "I feel anxious about my marriage"},
		{"empty input", "", ""},
		{"strips formatting tags", "We <b>worked</b> it out", "We worked it out"},
		{"strips script with payload", `<script>alert("xss")</script>`, ""},
		{"strips img onerror", `<img src=x onerror=alert(1)>hello`, "hello"},
		{"strips anchors keeps text", `<a href="https://evil.example">click</a>`, "click"},
		{"nested tags", "<div><p>still <i>here</i></p></div>", "still here"},
	}

	sanitizer := NewContentSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<b>bold</b> and <script>bad()</script> text`
	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("sanitize should be idempotent: %q vs %q", once, twice)
	}
}
