package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"
	"jsr_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	previewCachePrefix = "jsr:preview:"
	maxPreviewBody     = 1 << 20
	previewUserAgent   = "Mozilla/5.0 (compatible; JSRLinkPreview/1.0)"
)

// LinkPreview 提交资源时用于预填的链接元数据
type LinkPreview struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Favicon     string   `json:"favicon"`
}

var errPrivateAddress = errors.New("address resolves to a private network")

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast()
}

// PreviewService 抓取页面 meta 信息，Redis 可用时缓存结果
type PreviewService struct {
	Redis        *redis.Client
	TTL          time.Duration
	Client       *http.Client
	AllowPrivate bool
}

func NewPreviewService(rdb *redis.Client, timeout, ttl time.Duration) *PreviewService {
	s := &PreviewService{Redis: rdb, TTL: ttl}
	dialer := &net.Dialer{
		Timeout: timeout,
		// 连接时再次校验，防止 DNS 重绑定
		Control: func(network, address string, _ syscall.RawConn) error {
			if s.AllowPrivate {
				return nil
			}
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
				return errPrivateAddress
			}
			return nil
		},
	}
	s.Client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: timeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
	return s
}

func (s *PreviewService) checkHost(ctx context.Context, u *url.URL) error {
	if s.AllowPrivate {
		return nil
	}
	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return util.ErrInvalidURL
		}
		return nil
	}
	if strings.EqualFold(host, "localhost") {
		return util.ErrInvalidURL
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return util.ErrInvalidURL
	}
	for _, a := range addrs {
		if isPrivateIP(a.IP) {
			return util.ErrInvalidURL
		}
	}
	return nil
}

func cacheKey(link string) string {
	sum := sha1.Sum([]byte(link))
	return previewCachePrefix + hex.EncodeToString(sum[:])
}

func fallbackPreview(u *url.URL) *LinkPreview {
	return &LinkPreview{
		URL:     u.String(),
		Images:  []string{},
		Favicon: fmt.Sprintf("%s://%s/favicon.ico", u.Scheme, u.Host),
	}
}

// Preview 私有地址返回 INVALID_URL；抓取失败时返回只含 favicon 的默认结果
func (s *PreviewService) Preview(ctx context.Context, raw string) (*LinkPreview, error) {
	link, err := normalizeURL(raw)
	if err != nil {
		return nil, err
	}
	u, _ := url.Parse(link)
	if err := s.checkHost(ctx, u); err != nil {
		return nil, err
	}

	key := cacheKey(link)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var preview LinkPreview
			if json.Unmarshal([]byte(cached), &preview) == nil {
				monitoring.PreviewCache.WithLabelValues("hit").Inc()
				return &preview, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("Link preview cache read failed", zap.Error(err))
		}
		monitoring.PreviewCache.WithLabelValues("miss").Inc()
	}

	preview, err := s.fetch(ctx, u)
	if err != nil {
		logger.Log.Info("Link preview fetch failed", zap.String("url", link), zap.Error(err))
		return fallbackPreview(u), nil
	}

	if s.Redis != nil {
		if data, err := json.Marshal(preview); err == nil {
			if err := s.Redis.Set(ctx, key, data, s.TTL).Err(); err != nil {
				logger.Log.Warn("Link preview cache write failed", zap.Error(err))
			}
		}
	}
	return preview, nil
}

func (s *PreviewService) fetch(ctx context.Context, u *url.URL) (*LinkPreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", previewUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	return ParsePreview(resp.Request.URL, io.LimitReader(resp.Body, maxPreviewBody))
}

// ParsePreview 从 HTML 中提取标题、描述、图片与 favicon，相对地址按 base 解析
func ParsePreview(base *url.URL, r io.Reader) (*LinkPreview, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	preview := fallbackPreview(base)
	var title, ogTitle, description, ogDescription, favicon string
	seen := make(map[string]bool)

	resolve := func(ref string) string {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return ""
		}
		parsed, err := base.Parse(ref)
		if err != nil {
			return ""
		}
		return parsed.String()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				attrs[strings.ToLower(a.Key)] = a.Val
			}
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key := strings.ToLower(firstNonEmpty(attrs["property"], attrs["name"]))
				content := strings.TrimSpace(attrs["content"])
				switch key {
				case "og:title":
					ogTitle = content
				case "og:description":
					ogDescription = content
				case "description":
					description = content
				case "og:image", "og:image:url", "twitter:image":
					if img := resolve(content); img != "" && !seen[img] {
						seen[img] = true
						preview.Images = append(preview.Images, img)
					}
				}
			case "link":
				rel := strings.ToLower(attrs["rel"])
				if favicon == "" && strings.Contains(rel, "icon") {
					favicon = resolve(attrs["href"])
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	preview.Title = firstNonEmpty(ogTitle, title)
	preview.Description = firstNonEmpty(ogDescription, description)
	if favicon != "" {
		preview.Favicon = favicon
	}
	return preview, nil
}
