package module

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStudly(t *testing.T) {
	tests := map[string]string{
		"blog":        "Blog",
		"Blog":        "Blog",
		"blog-posts":  "BlogPosts",
		"blog_posts":  "BlogPosts",
		"blog posts":  "BlogPosts",
		"user-API":    "UserAPI",
		"--leading__": "Leading",
		"":            "",
	}
	for in, want := range tests {
		require.Equal(t, want, Studly(in), "Studly(%q)", in)
	}
}

func TestSnake(t *testing.T) {
	tests := map[string]string{
		"Blog":       "blog",
		"BlogPosts":  "blog_posts",
		"blog posts": "blog_posts",
		"Blog Posts": "blog_posts",
		"already_ok": "already_ok",
		"userName":   "user_name",
	}
	for in, want := range tests {
		require.Equal(t, want, Snake(in), "Snake(%q)", in)
	}
}
