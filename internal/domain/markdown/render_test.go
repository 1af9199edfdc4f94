package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
		absent   []string
		headings []string
	}{
		{
			name:     "empty",
			source:   "  \n",
			headings: []string{},
		},
		{
			name:     "heading and emphasis",
			source:   "# Samarkand\n\nThe **blue** city",
			contains: []string{"<h1>Samarkand</h1>", "<strong>blue</strong>"},
			headings: []string{"Samarkand"},
		},
		{
			name:     "gfm table",
			source:   "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
			headings: []string{},
		},
		{
			name:     "raw html stripped",
			source:   "<script>alert(1)</script>\n\n## Tips",
			absent:   []string{"<script>"},
			headings: []string{"Tips"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Render(tt.source)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(p.HTML, s) {
					t.Errorf("html %q does not contain %q", p.HTML, s)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(p.HTML, s) {
					t.Errorf("html %q contains %q", p.HTML, s)
				}
			}
			if !reflect.DeepEqual(p.Headings, tt.headings) {
				t.Errorf("headings = %v, want %v", p.Headings, tt.headings)
			}
		})
	}
}
