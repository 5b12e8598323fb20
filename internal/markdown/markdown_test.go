package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		contains   []string
		notContain []string
	}{
		{
			name:     "emphasis",
			src:      "hello **world**",
			contains: []string{"<p>hello <strong>world</strong></p>"},
		},
		{
			name:       "inline script is escaped",
			src:        "before <script>alert('x')</script> after",
			contains:   []string{"&lt;script&gt;", "&lt;/script&gt;"},
			notContain: []string{"<script>"},
		},
		{
			name:       "block script is escaped",
			src:        "<script>\nalert('x')\n</script>",
			contains:   []string{"&lt;script&gt;"},
			notContain: []string{"<script>"},
		},
		{
			name:       "raw div block is escaped",
			src:        "<div onclick=\"steal()\">hi</div>",
			contains:   []string{"&lt;div onclick=&quot;steal()&quot;&gt;"},
			notContain: []string{"<div"},
		},
		{
			name:       "javascript links are dropped",
			src:        "[click](javascript:alert(1))",
			notContain: []string{"javascript:"},
		},
		{
			name:     "code block keeps markup as text",
			src:      "```\n<b>bold</b>\n```",
			contains: []string{"&lt;b&gt;bold&lt;/b&gt;"},
		},
		{
			name:       "single newline stays a soft break",
			src:        "line1\nline2",
			contains:   []string{"<p>line1\nline2</p>"},
			notContain: []string{"<br"},
		},
		{
			name:       "bare urls are not linkified",
			src:        "see https://example.com",
			contains:   []string{"<p>see https://example.com</p>"},
			notContain: []string{"<a "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Render(tt.src))
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Render(%q) = %q, want it to contain %q", tt.src, got, want)
				}
			}
			for _, bad := range tt.notContain {
				if strings.Contains(got, bad) {
					t.Errorf("Render(%q) = %q, must not contain %q", tt.src, got, bad)
				}
			}
		})
	}
}
