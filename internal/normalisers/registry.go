package normalisers

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TypeDetectorRegistry = (*Registry)(nil)

// DefaultDocumentType is used when no detector recognises a document.
const DefaultDocumentType = "invoice"

// Registry implements TypeDetectorRegistry with priority-based selection.
// When multiple detectors match a hint, the highest priority one wins.
type Registry struct {
	mu        sync.RWMutex
	detectors []driven.TypeDetector
}

// NewRegistry creates a new detector registry.
func NewRegistry() *Registry {
	return &Registry{
		detectors: make([]driven.TypeDetector, 0),
	}
}

// Register registers a detector.
func (r *Registry) Register(detector driven.TypeDetector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.detectors = append(r.detectors, detector)
	sort.SliceStable(r.detectors, func(i, j int) bool {
		return r.detectors[i].Priority() > r.detectors[j].Priority()
	})
}

// Detect returns the type chosen by the highest priority matching detector,
// falling back to DefaultDocumentType.
func (r *Registry) Detect(hint domain.DocumentHint) domain.DetectedType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	language, country := localeFor(hint)
	detected := domain.DetectedType{
		Code:     DefaultDocumentType,
		Detector: "default",
		Language: language,
		Country:  country,
	}
	for _, d := range r.detectors {
		if code, ok := d.Detect(hint); ok && code != "" {
			detected.Code = code
			detected.Detector = d.Name()
			break
		}
	}
	detected.Name = typeName(detected.Code)
	return detected
}

// List returns detector names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.detectors))
	for _, d := range r.detectors {
		names = append(names, d.Name())
	}
	return names
}

// DefaultRegistry creates a registry with the built-in detectors registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&ExplicitCodeDetector{})
	r.Register(NewKeywordDetector())
	r.Register(&HintSlugDetector{})
	r.Register(&FallbackDetector{})

	return r
}

func typeName(code string) string {
	return strings.ReplaceAll(code, "_", " ")
}

// currencyLocales maps ISO currency codes to a language and country.
var currencyLocales = map[string][2]string{
	"UAH": {"uk", "UA"},
	"RUB": {"ru", "RU"},
	"KZT": {"ru", "KZ"},
	"BYN": {"ru", "BY"},
	"USD": {"en", "US"},
	"GBP": {"en", "GB"},
	"EUR": {"en", ""},
	"PLN": {"pl", "PL"},
}

// localeFor derives language and country from the currency; an explicit
// language in the hint overrides the derived one.
func localeFor(hint domain.DocumentHint) (language, country string) {
	if loc, ok := currencyLocales[strings.ToUpper(strings.TrimSpace(hint.Currency))]; ok {
		language, country = loc[0], loc[1]
	}
	if l := strings.ToLower(strings.TrimSpace(hint.Language)); l != "" {
		language = l
	}
	return language, country
}
