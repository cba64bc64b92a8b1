// Package dates parses the heterogeneous date representations found in the
// source exports: spreadsheet serial numbers, dd/mm/yyyy strings, mm/yyyy
// periods, Portuguese month names and ISO strings.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Days between the spreadsheet epoch (1899-12-30) and the Unix epoch.
	serialEpochOffset = 25569
	msPerDay          = 86_400_000
	// Serial numbers below this are treated as plain numbers, not dates.
	minSerial = 30000
)

var (
	dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})$`)
	monthYearRe    = regexp.MustCompile(`^(\d{1,2})[/\-](\d{4})$`)
	isoRe          = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	namedMonthRe   = regexp.MustCompile(`^([a-z]{3,10})[/\-\s]+(\d{4})$`)
)

// Portuguese month names, keyed by their accent-stripped lowercase form.
var monthNames = map[string]time.Month{
	"jan": time.January, "janeiro": time.January,
	"fev": time.February, "fevereiro": time.February,
	"mar": time.March, "marco": time.March,
	"abr": time.April, "abril": time.April,
	"mai": time.May, "maio": time.May,
	"jun": time.June, "junho": time.June,
	"jul": time.July, "julho": time.July,
	"ago": time.August, "agosto": time.August,
	"set": time.September, "setembro": time.September,
	"out": time.October, "outubro": time.October,
	"nov": time.November, "novembro": time.November,
	"dez": time.December, "dezembro": time.December,
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Parse converts any supported date representation to a canonical UTC time.
// Unparseable input reports not-ok; callers must exclude such records from
// date-based filtering and averaging rather than substitute a sentinel.
func Parse(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case float64:
		return fromSerial(x)
	case int:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	case string:
		return parseString(x)
	}
	return time.Time{}, false
}

func fromSerial(n float64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	ms := int64((n - serialEpochOffset) * msPerDay)
	return time.UnixMilli(ms).UTC(), true
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// A trailing time of day is ignored; only the date part matters.
	datePart := strings.Fields(s)[0]

	if m := dayMonthYearRe.FindStringSubmatch(datePart); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return civil(year, month, day)
	}

	if m := isoRe.FindStringSubmatch(datePart); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return civil(year, month, day)
	}

	if m := monthYearRe.FindStringSubmatch(datePart); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return civil(year, month, 1)
	}

	if m := namedMonthRe.FindStringSubmatch(foldAccents(s)); m != nil {
		if month, ok := monthNames[m[1]]; ok {
			year, _ := strconv.Atoi(m[2])
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Serial numbers sometimes arrive as strings.
	if n, err := strconv.ParseFloat(datePart, 64); err == nil && n > minSerial {
		return fromSerial(n)
	}

	return time.Time{}, false
}

func civil(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func foldAccents(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
