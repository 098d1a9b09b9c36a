package service

import (
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	policy := bluemonday.StrictPolicy()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hooks in depth", "Hooks in depth"},
		{"markup removed", "<b>Bold</b> <i>move</i>", "Bold move"},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"comparison kept", "a < b && c > d", "a < b && c > d"},
		{"encoded tag", "&lt;img src=x onerror=alert(1)&gt;", ""},
		{"encoded tag with text", "&lt;b&gt;bold&lt;/b&gt; text", "bold text"},
		{"double encoded tag", "&amp;lt;b&amp;gt;x", "x"},
		{"trimmed", "  <p>spaced</p>  ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plainText(policy, tt.in))
		})
	}
}
