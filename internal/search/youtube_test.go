package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestExtractVideoId(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"  dQw4w9WgXcQ  ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=43s", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/watch?v=dQw4w9WgXcQ", ""},
		{"not a video", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractVideoId(tt.query), "query: %q", tt.query)
	}
}

func TestPageScraping(t *testing.T) {
	page := `<html><head>
		<title>Some Video - YouTube</title>
		<link itemprop="name" content="Some Channel">
	</head><body></body></html>`

	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Some Video - YouTube", pageTitle(doc))
	assert.Equal(t, "Some Channel", channelName(doc))
}
