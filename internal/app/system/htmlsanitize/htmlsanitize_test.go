package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/taskhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Write report", "Write report"},
		{"trims", "  Write report \n", "Write report"},
		{"strips tags", "<b>Write</b> report", "Write report"},
		{"drops script", "Plan<script>alert('x')</script>", "Plan"},
		{"keeps ampersand", "Q&A session", "Q&A session"},
		{"keeps quotes", `say "hi"`, `say "hi"`},
		{"only markup", "<p></p>", ""},
		{"keeps less-than", "1 < 2", "1 < 2"},
		{"escaped tags", "&lt;b&gt;Write&lt;/b&gt; report", "Write report"},
		{"escaped script", "Plan&lt;script&gt;alert(1)&lt;/script&gt;", "Plan"},
		{"double escaped tags", "&amp;lt;i&amp;gt;x&amp;lt;/i&amp;gt;", "x"},
		{"entity text", "Q&amp;A", "Q&A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
