package utils

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	MaxShortCodeLength = 32
	MaxTargetURLLength = 2048
)

// 校验失败时返回的错误即 i18n 消息 ID
var (
	ErrShortCodeRequired  = errors.New("error.shortcode_required")
	ErrShortCodeSpaces    = errors.New("error.shortcode_cannot_contain_spaces")
	ErrShortCodeInvalid   = errors.New("error.shortcode_invalid")
	ErrTargetURLRequired  = errors.New("error.target_url_required")
	ErrTargetURLInvalid   = errors.New("error.target_url_invalid")
	ErrTargetURLMaxLength = errors.New("error.target_url_max_length")
	ErrDomainInvalid      = errors.New("error.domain_invalid")
)

var (
	shortCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)
	domainPattern    = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)*[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// ValidateShortCode 校验用户指定的短码：1-32 位字母、数字、'-'、'_'，区分大小写
func ValidateShortCode(shortCode string) error {
	if shortCode == "" {
		return ErrShortCodeRequired
	}
	if ContainsWhitespace(shortCode) {
		return ErrShortCodeSpaces
	}
	if !shortCodePattern.MatchString(shortCode) {
		return ErrShortCodeInvalid
	}
	return nil
}

// ValidateTargetURL 目标地址必须是带 host 的 http(s) 绝对 URL
func ValidateTargetURL(targetURL string) error {
	if targetURL == "" {
		return ErrTargetURLRequired
	}
	if len(targetURL) > MaxTargetURLLength {
		return ErrTargetURLMaxLength
	}
	if ContainsWhitespace(targetURL) {
		return ErrTargetURLInvalid
	}

	u, err := url.ParseRequestURI(targetURL)
	if err != nil || !u.IsAbs() || u.Host == "" || u.Hostname() == "" {
		return ErrTargetURLInvalid
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrTargetURLInvalid
	}
	return nil
}

// TargetHost 返回目标 URL 的小写 host（不含端口）
func TargetHost(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// NormalizeDomain 接受 "Example.com" 或 "https://example.com/path"，返回小写域名
func NormalizeDomain(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", ErrDomainInvalid
	}
	if strings.Contains(d, "://") {
		u, err := url.Parse(d)
		if err != nil {
			return "", ErrDomainInvalid
		}
		d = u.Hostname()
	}
	d = strings.TrimSuffix(strings.ToLower(d), ".")
	if net.ParseIP(d) != nil {
		return d, nil
	}
	if len(d) > 253 || !domainPattern.MatchString(d) {
		return "", ErrDomainInvalid
	}
	return d, nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
