package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

type localizerKey struct{}

// Translator 持有消息目录和语言匹配器
type Translator struct {
	bundle  *i18n.Bundle
	tags    []language.Tag // 首位为默认语言
	matcher language.Matcher
}

// InitI18n 加载内置的 locales/<lang>.toml
func InitI18n(defaultLang string) (*Translator, error) {
	defaultTag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parsing default language %q: %w", defaultLang, err)
	}
	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		data, err := localeFS.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, path.Base(file)); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
	}

	tags := bundle.LanguageTags()
	return &Translator{
		bundle:  bundle,
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}, nil
}

// Languages 已加载的语言
func (t *Translator) Languages() []string {
	out := make([]string, 0, len(t.tags))
	for _, tag := range t.tags {
		out = append(out, tag.String())
	}
	return out
}

// Match 按 Accept-Language 选出支持的语言，无法解析时返回默认语言
func (t *Translator) Match(acceptLanguage string) language.Tag {
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return t.tags[0]
	}
	_, index, confidence := t.matcher.Match(desired...)
	if confidence == language.No {
		return t.tags[0]
	}
	return t.tags[index]
}

func (t *Translator) Localizer(lang language.Tag) *i18n.Localizer {
	return i18n.NewLocalizer(t.bundle, lang.String())
}

func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, l)
}

func localizerFrom(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	return l, ok
}

// T 翻译消息 ID；上下文中没有 Localizer 或目录缺少该 ID 时返回 ID 本身
func T(ctx context.Context, key string, data map[string]interface{}) string {
	l, ok := localizerFrom(ctx)
	if !ok {
		return key
	}
	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || strings.TrimSpace(msg) == "" {
		return key
	}
	return msg
}
