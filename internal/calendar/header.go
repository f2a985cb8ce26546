package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"gridcal/internal/model"
)

// HeaderSource is one registered section-header variant. Template is opaque
// to the engine; adapters use it to pick how the header is built.
type HeaderSource struct {
	ID       string `json:"id"`
	Template string `json:"template,omitempty"`
}

// HeaderContext is what a HeaderSelector sees when choosing a header.
type HeaderContext struct {
	Section int
	Range   model.SectionRange
}

// HeaderSelector returns the ID of the header a section should use.
type HeaderSelector func(HeaderContext) string

// Header is the resolved header for one section.
type Header struct {
	Section int                `json:"section"`
	Range   model.SectionRange `json:"range"`
	Source  HeaderSource       `json:"source"`
}

// HeaderRegistry holds the registered header sources. With a single source
// that source is always used; with several, the selector's ID is looked up
// and unknown IDs fall back to the first registration.
type HeaderRegistry struct {
	sources  []HeaderSource
	byID     map[string]int
	selector HeaderSelector
}

// NewHeaderRegistry registers sources in order. IDs are compared after NFC
// normalization so differently composed spellings match.
func NewHeaderRegistry(selector HeaderSelector, sources ...HeaderSource) (*HeaderRegistry, error) {
	if len(sources) == 0 {
		return nil, errors.New("header registry: at least one source is required")
	}
	r := &HeaderRegistry{
		sources:  make([]HeaderSource, 0, len(sources)),
		byID:     make(map[string]int, len(sources)),
		selector: selector,
	}
	for _, src := range sources {
		key := headerKey(src.ID)
		if key == "" {
			return nil, errors.New("header registry: source ID is empty")
		}
		if _, dup := r.byID[key]; dup {
			return nil, fmt.Errorf("header registry: duplicate source ID %q", src.ID)
		}
		r.byID[key] = len(r.sources)
		r.sources = append(r.sources, src)
	}
	return r, nil
}

// DefaultHeaders is the registry used when none is configured.
func DefaultHeaders() *HeaderRegistry {
	r, _ := NewHeaderRegistry(nil, HeaderSource{ID: "month"})
	return r
}

// Sources returns the registered sources in registration order.
func (r *HeaderRegistry) Sources() []HeaderSource {
	return append([]HeaderSource(nil), r.sources...)
}

// Resolve picks the header source for ctx.
func (r *HeaderRegistry) Resolve(ctx HeaderContext) HeaderSource {
	if len(r.sources) == 1 || r.selector == nil {
		return r.sources[0]
	}
	if i, ok := r.byID[headerKey(r.selector(ctx))]; ok {
		return r.sources[i]
	}
	return r.sources[0]
}

// MonthSelector returns a selector mapping months to header IDs. Months not
// in the map select fallback.
func MonthSelector(byMonth map[time.Month]string, fallback string) HeaderSelector {
	m := make(map[time.Month]string, len(byMonth))
	for k, v := range byMonth {
		m[k] = v
	}
	return func(ctx HeaderContext) string {
		if id, ok := m[ctx.Range.Month]; ok {
			return id
		}
		return fallback
	}
}

func headerKey(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}
