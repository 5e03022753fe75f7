package rule

import "sync"

// TranslationCache memoizes a rule's per-locale translated variant, keyed by
// (rule instance, locale), grounded on mubble/tools/magic.py's
// get_cached_translation/cache_translation (there stored as a _translations
// dict attribute on the rule object itself; here kept process-wide under
// sync.Map since rule instances in Go have no attribute bag to hang it on).
// Per SPEC_FULL.md, this is a sync.Map rather than a plain map because
// translation lookups happen concurrently across in-flight updates.
type TranslationCache struct {
	entries sync.Map // map[translationKey]Rule
}

type translationKey struct {
	rule   Rule
	locale string
}

// NewTranslationCache builds an empty cache.
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{}
}

// Get returns the cached translated rule for (base, locale), if any.
func (c *TranslationCache) Get(base Rule, locale string) (Rule, bool) {
	v, ok := c.entries.Load(translationKey{rule: base, locale: locale})
	if !ok {
		return nil, false
	}
	return v.(Rule), true
}

// Put records translated as the (base, locale) translation, growing the
// cache; entries are never evicted (DESIGN.md: "a cache that's never
// evicted, only grown once per pair for the process lifetime").
func (c *TranslationCache) Put(base Rule, locale string, translated Rule) {
	c.entries.Store(translationKey{rule: base, locale: locale}, translated)
}
