package referrers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource(t *testing.T) {
	tests := []struct {
		referrer string
		expected string
	}{
		{"", Direct},
		{"   ", Direct},
		{"https://", Direct},
		{"https://www.google.com/search?q=visitlog", "Google"},
		{"https://news.ycombinator.com/item?id=1", "Hacker News"},
		{"https://m.facebook.com/", "Facebook"},
		{"http://mobile.twitter.com/someone", "X/Twitter"},
		{"https://WWW.Reddit.com/r/golang", "Reddit"},
		{"https://www.example.com/page", "example.com"},
		{"https://blog.example.com:8443/post", "blog.example.com"},
		{"lobste.rs/s/abc", "Lobsters"},
	}

	for _, tt := range tests {
		t.Run(tt.referrer, func(t *testing.T) {
			assert.Equal(t, tt.expected, Source(tt.referrer))
		})
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "Google", Host("GOOGLE.COM"))
	assert.Equal(t, "GitHub", Host("gist.github.com"))
	assert.Equal(t, "myblog.io", Host("www.myblog.io"))
}
