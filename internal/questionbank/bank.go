package questionbank

import "sort"

// Bank resolves question metadata by id across per-locale documents.
// A Bank is immutable after construction and safe for concurrent use.
type Bank struct {
	order    []Locale
	byLocale map[Locale]map[string]Question
}

// New indexes docs by locale. order sets the fallback sequence searched after
// the requested locale; locales present in docs but absent from order are
// appended in sorted order. With no order, DefaultLocales is used.
func New(docs map[Locale][]*Document, order ...Locale) *Bank {
	if len(order) == 0 {
		order = DefaultLocales
	}
	b := &Bank{byLocale: make(map[Locale]map[string]Question, len(docs))}
	for loc, list := range docs {
		idx := make(map[string]Question)
		for _, d := range list {
			d.Each(func(q Question) {
				if _, dup := idx[q.ID]; !dup {
					idx[q.ID] = q
				}
			})
		}
		b.byLocale[loc] = idx
	}

	seen := make(map[Locale]bool, len(order))
	for _, l := range order {
		if !seen[l] {
			seen[l] = true
			b.order = append(b.order, l)
		}
	}
	var rest []Locale
	for l := range b.byLocale {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	b.order = append(b.order, rest...)
	return b
}

// Lookup searches the requested locale first, then every other locale in the
// bank's fallback order. Unknown ids report false; they are never an error.
func (b *Bank) Lookup(id, lang string) (Question, bool) {
	if b == nil || id == "" {
		return Question{}, false
	}
	first := Locale(lang)
	if q, ok := b.byLocale[first][id]; ok {
		return q, true
	}
	for _, l := range b.order {
		if l == first {
			continue
		}
		if q, ok := b.byLocale[l][id]; ok {
			return q, true
		}
	}
	return Question{}, false
}

// Len reports the number of distinct question ids per locale.
func (b *Bank) Len(lang string) int {
	if b == nil {
		return 0
	}
	return len(b.byLocale[Locale(lang)])
}
