package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxSanitizePasses = 5

// plainText 反复过滤并解码直到结果不再变化，实体编码的标签解码后同样会被去掉
// 达到次数上限仍未稳定时返回转义后的文本
func plainText(policy *bluemonday.Policy, v string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		sanitized := policy.Sanitize(v)
		decoded := html.UnescapeString(sanitized)
		if decoded == v {
			return strings.TrimSpace(decoded)
		}
		v = decoded
	}
	return strings.TrimSpace(policy.Sanitize(v))
}
