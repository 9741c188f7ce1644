package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Great film", "Great film"},
		{"<b>bold</b> move", "bold move"},
		{"<script>alert(1)</script>Great", "Great"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"  padded  ", "padded"},
		{"<p></p>", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Text(tt.in), tt.in)
	}
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(nil))

	blank := "<i></i>"
	assert.Nil(t, Optional(&blank))

	text := "<em>epic</em>"
	got := Optional(&text)
	if assert.NotNil(t, got) {
		assert.Equal(t, "epic", *got)
	}
}
