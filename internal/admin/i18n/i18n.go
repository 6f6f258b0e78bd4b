package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// CookieName stores the explicit language choice.
const CookieName = "lang"

// Bundle holds message catalogues for the supported languages.
type Bundle struct {
	dict     map[string]map[string]string
	fallback string
	tags     []language.Tag
	names    []string
	matcher  language.Matcher
}

// Load reads the embedded catalogues. The fallback language is listed first and must exist.
func Load(fallback string, supported ...string) (*Bundle, error) {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if fallback == "" {
		fallback = "ko"
	}
	if len(supported) == 0 {
		supported = []string{"ko", "en", "ja"}
	}

	b := &Bundle{
		dict:     make(map[string]map[string]string),
		fallback: fallback,
	}
	ordered := append([]string{fallback}, supported...)
	for _, lang := range ordered {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if _, seen := b.dict[lang]; seen || lang == "" {
			continue
		}
		raw, err := localeFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			return nil, fmt.Errorf("i18n: load locale %s: %w", lang, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("i18n: decode locale %s: %w", lang, err)
		}
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse locale %s: %w", lang, err)
		}
		b.dict[lang] = messages
		b.tags = append(b.tags, tag)
		b.names = append(b.names, lang)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Fallback returns the default language.
func (b *Bundle) Fallback() string { return b.fallback }

// Supported lists the loaded languages, fallback first.
func (b *Bundle) Supported() []string {
	return append([]string(nil), b.names...)
}

// Match picks the best supported language for the given preferences, each of which may be a
// single tag or a full Accept-Language header.
func (b *Bundle) Match(prefs ...string) string {
	var tags []language.Tag
	for _, pref := range prefs {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return b.names[idx]
}

// T returns the message for key in lang, falling back to the default language and finally the key.
// Arguments are applied with fmt.Sprintf.
func (b *Bundle) T(lang, key string, args ...any) string {
	msg, ok := b.lookup(lang, key)
	if !ok {
		msg, ok = b.lookup(b.fallback, key)
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	if m, ok := b.dict[lang]; ok {
		v, ok := m[key]
		return v, ok
	}
	return "", false
}

// Localizer returns a Localizer for lang, matched against the supported languages.
func (b *Bundle) Localizer(lang string) Localizer {
	return Localizer{bundle: b, Lang: b.Match(lang)}
}

// Localizer binds a bundle to the language chosen for one request.
type Localizer struct {
	bundle *Bundle
	Lang   string
}

// T translates key for the bound language.
func (l Localizer) T(key string, args ...any) string {
	if l.bundle == nil {
		if len(args) > 0 {
			return fmt.Sprintf(key, args...)
		}
		return key
	}
	return l.bundle.T(l.Lang, key, args...)
}

// SectionLabels returns the localised default labels for the five sections.
func (l Localizer) SectionLabels() []string {
	out := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		key := fmt.Sprintf("section.default.%d", i)
		if v := l.T(key); v != key {
			out = append(out, v)
		} else {
			out = append(out, "")
		}
	}
	return out
}

type localizerKey struct{}

// WithLocalizer stores the localizer on the context.
func WithLocalizer(ctx context.Context, l Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, l)
}

// FromContext returns the request localizer. Without one, keys are returned untranslated.
func FromContext(ctx context.Context) Localizer {
	if ctx != nil {
		if l, ok := ctx.Value(localizerKey{}).(Localizer); ok {
			return l
		}
	}
	return Localizer{}
}

// Middleware resolves the request language from ?lang=, the lang cookie, then Accept-Language.
// An explicit ?lang= is remembered in the cookie.
func Middleware(bundle *Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var lang string
			if q := strings.TrimSpace(r.URL.Query().Get(CookieName)); q != "" {
				lang = bundle.Match(q)
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    lang,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				lang = bundle.Match(c.Value)
			} else {
				lang = bundle.Match(r.Header.Get("Accept-Language"))
			}
			w.Header().Add("Vary", "Accept-Language")
			ctx := WithLocalizer(r.Context(), Localizer{bundle: bundle, Lang: lang})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
