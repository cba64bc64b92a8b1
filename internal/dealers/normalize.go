// Package dealers canonicalizes free-text dealer names so spelling variants
// collapse to one identity, and maintains the deduplicated dealer catalog.
package dealers

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dealerops/funnel-etl-go/internal/schema"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`) // store codes like "(462011)"
	spaceRuns     = regexp.MustCompile(`\s+`)
	digitRun      = regexp.MustCompile(`\d{3,}`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize produces the canonical key for a dealer name. Two names refer to
// the same dealer iff their canonical keys are equal. Idempotent; empty input
// yields the empty string.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	s := strings.TrimSpace(name)
	s = parenthetical.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Catalog maps canonical keys to the first original-cased spelling observed,
// which is retained as the display name.
type Catalog struct {
	display map[string]string
}

func NewCatalog() *Catalog {
	return &Catalog{display: make(map[string]string)}
}

func (c *Catalog) Add(name string) {
	original := strings.TrimSpace(name)
	if original == "" {
		return
	}
	key := Normalize(original)
	if key == "" {
		return
	}
	if _, ok := c.display[key]; !ok {
		c.display[key] = original
	}
}

// Display returns the retained spelling for a canonical key.
func (c *Catalog) Display(key string) (string, bool) {
	name, ok := c.display[key]
	return name, ok
}

// Names lists the display spellings in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.display))
	for _, name := range c.display {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Extract builds the dealer catalog across the dealer-bearing sets. The
// test-drive and invoice exports mix identifiers and emails into the dealer
// column, so their values pass a plausibility check first.
func Extract(leads, testDrives, journeys, invoices []schema.Record) *Catalog {
	cat := NewCatalog()
	for _, r := range leads {
		if name, ok := schema.Dealer(r, schema.KindLead); ok {
			cat.Add(name)
		}
	}
	for _, r := range testDrives {
		if name, ok := schema.Dealer(r, schema.KindTestDrive); ok && plausibleName(name) {
			cat.Add(name)
		}
	}
	for _, r := range journeys {
		if name, ok := schema.Dealer(r, schema.KindJourney); ok {
			cat.Add(name)
		}
	}
	for _, r := range invoices {
		if name, ok := schema.Dealer(r, schema.KindInvoice); ok && plausibleName(name) {
			cat.Add(name)
		}
	}
	return cat
}

func plausibleName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return false
	}
	if strings.Contains(s, "@") {
		return false
	}
	return !digitRun.MatchString(s)
}
