// Package locale resolves locale tags into the month and weekday names the
// calendar renders. Resolution never fails: anything it cannot match falls
// back to English.
package locale

import (
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/goodsign/monday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zapponejosh/yearcal/internal/calendar"
)

// Fallback is the tag used when a locale cannot be resolved.
const Fallback = "en_US"

// Environment variables consulted by FromEnvironment, highest priority first.
var envKeys = []string{"LC_ALL", "LC_TIME", "LANG"}

// firstSunday anchors weekday formatting: 2023-01-01 is a Sunday.
var firstSunday = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)

// Resolve returns the names for tag. It accepts POSIX style tags
// ("hu_HU.UTF-8", "hu_HU@euro"), BCP 47 tags ("hu-HU") and bare languages
// ("hu"). Empty, C, POSIX and unsupported tags resolve to English.
func Resolve(tag string) calendar.LocaleNames {
	loc, ok := match(tag)
	if !ok || loc == Fallback {
		return calendar.EnglishNames()
	}
	return names(loc)
}

// FromEnvironment returns the first non-empty of LC_ALL, LC_TIME and LANG.
func FromEnvironment() string {
	for _, key := range envKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Supported lists every tag Resolve can match, sorted.
func Supported() []string {
	all := monday.ListLocales()
	tags := make([]string, 0, len(all))
	for _, l := range all {
		tags = append(tags, string(l))
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// match maps tag onto a supported monday locale.
func match(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	switch tag {
	case "", "C", "POSIX":
		return "", false
	}

	supported := Supported()
	if exact := strings.ReplaceAll(tag, "-", "_"); slices.Contains(supported, exact) {
		return exact, true
	}

	parsed, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return "", false
	}
	base, _ := parsed.Base()
	region, _ := parsed.Region()

	if want := base.String() + "_" + region.String(); slices.Contains(supported, want) {
		return want, true
	}

	// same language, any region
	prefix := base.String() + "_"
	for _, s := range supported {
		if strings.HasPrefix(s, prefix) {
			return s, true
		}
	}
	return "", false
}

// names formats the months and weekdays of a supported locale.
func names(loc string) calendar.LocaleNames {
	ml := monday.Locale(loc)
	caser := cases.Title(language.Make(strings.ReplaceAll(loc, "_", "-")), cases.NoLower)

	n := calendar.LocaleNames{Tag: loc}
	for i := range n.Months {
		t := time.Date(2023, time.Month(i+1), 1, 12, 0, 0, 0, time.UTC)
		n.Months[i] = titleFirst(caser, monday.Format(t, "January", ml))
	}
	for i := range n.Weekdays {
		t := firstSunday.AddDate(0, 0, i)
		n.Weekdays[i] = abbreviate(titleFirst(caser, monday.Format(t, "Mon", ml)))
	}
	return n
}

// titleFirst upper-cases only the first letter of s.
func titleFirst(caser cases.Caser, s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return caser.String(string(r)) + s[size:]
}

// abbreviate cuts a weekday name to two runes and fits it to exactly two
// display columns.
func abbreviate(s string) string {
	s = strings.TrimSuffix(s, ".")
	if runes := []rune(s); len(runes) > 2 {
		s = string(runes[:2])
	}
	s = ansi.Truncate(s, 2, "")
	for ansi.StringWidth(s) < 2 {
		s += " "
	}
	return s
}
