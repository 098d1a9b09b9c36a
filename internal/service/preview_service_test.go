package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"jsr_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const previewPage = `<!doctype html>
<html><head>
<title>Plain title</title>
<meta property="og:title" content="JavaScript Guide">
<meta name="description" content="Learn JS">
<meta property="og:image" content="/img/cover.png">
<meta name="twitter:image" content="https://cdn.example.com/cover.png">
<meta property="og:image" content="/img/cover.png">
<link rel="shortcut icon" href="/static/icon.png">
</head><body></body></html>`

func TestParsePreview(t *testing.T) {
	base, err := url.Parse("https://docs.example.com/guide/intro")
	require.NoError(t, err)

	preview, err := ParsePreview(base, strings.NewReader(previewPage))
	require.NoError(t, err)
	assert.Equal(t, "JavaScript Guide", preview.Title)
	assert.Equal(t, "Learn JS", preview.Description)
	assert.Equal(t, []string{
		"https://docs.example.com/img/cover.png",
		"https://cdn.example.com/cover.png",
	}, preview.Images)
	assert.Equal(t, "https://docs.example.com/static/icon.png", preview.Favicon)
}

func TestParsePreview_Defaults(t *testing.T) {
	base, _ := url.Parse("https://example.com/page")
	preview, err := ParsePreview(base, strings.NewReader("<html><head><title> Only title </title></head></html>"))
	require.NoError(t, err)
	assert.Equal(t, "Only title", preview.Title)
	assert.Empty(t, preview.Description)
	assert.Empty(t, preview.Images)
	assert.Equal(t, "https://example.com/favicon.ico", preview.Favicon)
}

func TestPreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(previewPage))
	}))
	defer srv.Close()

	ctx := context.Background()

	blocked := NewPreviewService(nil, time.Second, time.Hour)
	_, err := blocked.Preview(ctx, srv.URL)
	assert.ErrorIs(t, err, util.ErrInvalidURL)

	_, err = blocked.Preview(ctx, "ftp://example.com/file")
	assert.ErrorIs(t, err, util.ErrInvalidURL)

	svc := NewPreviewService(nil, time.Second, time.Hour)
	svc.AllowPrivate = true

	preview, err := svc.Preview(ctx, srv.URL+"/guide")
	require.NoError(t, err)
	assert.Equal(t, "JavaScript Guide", preview.Title)
	assert.Equal(t, srv.URL+"/static/icon.png", preview.Favicon)

	// 抓取失败时返回默认结果
	preview, err = svc.Preview(ctx, srv.URL+"/missing")
	require.NoError(t, err)
	assert.Empty(t, preview.Title)
	assert.Equal(t, srv.URL+"/favicon.ico", preview.Favicon)
}
