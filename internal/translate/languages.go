package translate

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"pdf-translator/internal/logger"
)

const (
	// DefaultDirectoryTTL is how long a fetched language listing stays fresh
	DefaultDirectoryTTL = 1 * time.Hour
	// FallbackRetryInterval is how long a failed fetch is remembered before
	// the remote listing is probed again
	FallbackRetryInterval = 30 * time.Second
)

// fallbackCodes is the static set of languages assumed supported when the
// remote listing cannot be fetched
var fallbackCodes = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh", "ar",
	"hi", "nl", "sv", "da", "no", "fi", "pl", "cs", "hu", "tr",
}

// LanguageLister fetches the supported-language listing
type LanguageLister interface {
	Languages(ctx context.Context) ([]Language, error)
}

// Directory caches the set of supported target languages. Entries expire
// after a TTL and are refetched lazily; when the remote listing is down the
// static fallback set is served instead, and at most one probe of the
// remote listing happens per retry interval.
type Directory struct {
	lister LanguageLister
	ttl    time.Duration
	retry  time.Duration

	mu        sync.RWMutex
	languages map[string]string
	fetchedAt time.Time
	fallback  bool
}

// NewDirectory creates a Directory backed by the given lister
func NewDirectory(lister LanguageLister) *Directory {
	return &Directory{
		lister: lister,
		ttl:    DefaultDirectoryTTL,
		retry:  FallbackRetryInterval,
	}
}

// NewDirectoryWithTTL creates a Directory with a custom cache TTL, applied
// to both fetched and fallback entries. Useful for testing.
func NewDirectoryWithTTL(lister LanguageLister, ttl time.Duration) *Directory {
	return &Directory{
		lister: lister,
		ttl:    ttl,
		retry:  ttl,
	}
}

// Languages returns the supported languages as a code-to-name map. The
// returned map is a copy and safe to mutate.
func (d *Directory) Languages(ctx context.Context) map[string]string {
	d.refresh(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]string, len(d.languages))
	for code, name := range d.languages {
		out[code] = name
	}
	return out
}

// Supported reports whether code names a supported target language
func (d *Directory) Supported(ctx context.Context, code string) bool {
	norm := NormalizeCode(code)
	if norm == "" {
		return false
	}

	d.refresh(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.languages[norm]
	return ok
}

// Invalidate drops the cached listing so the next call refetches
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.languages = nil
	d.fetchedAt = time.Time{}
	d.fallback = false
}

// refresh refetches the listing when the cached entry has expired. A failed
// fetch stamps the cache too, so validation keeps answering from the cached
// or fallback set instead of stalling on a dead listing service.
func (d *Directory) refresh(ctx context.Context) {
	d.mu.RLock()
	fresh := d.freshLocked()
	d.mu.RUnlock()
	if fresh {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.freshLocked() {
		return
	}

	langs, err := d.lister.Languages(ctx)
	if err != nil || len(langs) == 0 {
		if d.languages == nil {
			logger.Warn("language listing unavailable, using fallback set", logger.Err(err))
			d.languages = fallbackLanguages()
		} else {
			logger.Warn("language listing refresh failed, keeping cached set", logger.Err(err))
		}
		d.fetchedAt = time.Now()
		d.fallback = true
		return
	}

	m := make(map[string]string, len(langs))
	for _, lang := range langs {
		code := NormalizeCode(lang.Code)
		if code == "" {
			continue
		}
		m[code] = lang.Name
	}

	logger.Info("language listing refreshed", logger.Int("count", len(m)))
	d.languages = m
	d.fetchedAt = time.Now()
	d.fallback = false
}

// freshLocked reports whether the cached listing is servable without a
// refetch. Entries written after a failed fetch expire on the shorter retry
// interval. Callers hold at least a read lock.
func (d *Directory) freshLocked() bool {
	if d.languages == nil {
		return false
	}
	if d.fallback {
		return time.Since(d.fetchedAt) < d.retry
	}
	return time.Since(d.fetchedAt) < d.ttl
}

// fallbackLanguages builds the static code-to-name map, with English display
// names resolved through x/text
func fallbackLanguages() map[string]string {
	namer := display.English.Languages()
	m := make(map[string]string, len(fallbackCodes))
	for _, code := range fallbackCodes {
		tag, err := language.Parse(code)
		if err != nil {
			m[code] = code
			continue
		}
		m[code] = namer.Name(tag)
	}
	return m
}

// NormalizeCode lowercases and canonicalizes a language code to its base
// form ("EN-us" becomes "en"). Returns "" for unparseable input; "auto"
// passes through for source-detection requests.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "auto" {
		return code
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
