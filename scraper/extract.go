package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"truck-scraper/models"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Strategy pulls one candidate value out of a listing page or card. An
// empty string means the strategy found nothing; strategies never fail.
type Strategy func(page *goquery.Selection) string

// Rule binds a field to the strategies tried for it, in order.
type Rule struct {
	Field      models.Field
	Strategies []Strategy
}

// First returns the first non-empty result of the strategies.
func First(page *goquery.Selection, strategies ...Strategy) string {
	for _, s := range strategies {
		if v := strings.TrimSpace(s(page)); v != "" {
			return v
		}
	}
	return ""
}

// Apply runs every rule against page and stores the results on listing.
// Numeric fields are normalized to integers; a value that does not parse is
// left null instead of failing the record.
func Apply(listing *models.Listing, page *goquery.Selection, rules []Rule) {
	for _, rule := range rules {
		v := First(page, rule.Strategies...)
		if v == "" {
			continue
		}
		if models.NumericFields[rule.Field] {
			n, ok := ParseInteger(v)
			if !ok {
				continue
			}
			v = strconv.Itoa(n)
		}
		listing.Set(rule.Field, v)
	}
}

// Text returns the cleaned text of the first element matching selector.
func Text(selector string) Strategy {
	return func(page *goquery.Selection) string {
		return CleanText(page.Find(selector).First().Text())
	}
}

// OwnText returns the text of the first match without its child elements,
// useful when a label and its value share a node.
func OwnText(selector string) Strategy {
	return func(page *goquery.Selection) string {
		el := page.Find(selector).First()
		clone := el.Clone()
		clone.Children().Remove()
		return CleanText(clone.Text())
	}
}

// Attr returns an attribute of the first element matching selector. An
// empty selector reads the attribute from page itself.
func Attr(selector, attr string) Strategy {
	return func(page *goquery.Selection) string {
		el := page
		if selector != "" {
			el = page.Find(selector)
		}
		v, _ := el.First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

// Labeled finds an element under container whose text starts with
// "label:" and returns what follows the colon. It matches the older
// attribute-group layout: <span>odometer: <b>85000</b></span>.
func Labeled(container, label string) Strategy {
	prefix := strings.ToLower(label) + ":"
	return func(page *goquery.Selection) string {
		var value string
		page.Find(container).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := CleanText(s.Text())
			if !strings.HasPrefix(strings.ToLower(text), prefix) {
				return true
			}
			if b := CleanText(s.Find("b").First().Text()); b != "" {
				value = b
			} else {
				value = strings.TrimSpace(text[len(prefix):])
			}
			return false
		})
		return value
	}
}

// Pattern runs re over the text of selector (or the whole page when empty)
// and returns the first capture group, or the whole match if there is none.
func Pattern(selector string, re *regexp.Regexp) Strategy {
	return func(page *goquery.Selection) string {
		el := page
		if selector != "" {
			el = page.Find(selector)
		}
		m := re.FindStringSubmatch(CleanText(el.Text()))
		if m == nil {
			return ""
		}
		if len(m) > 1 {
			return m[1]
		}
		return m[0]
	}
}

// Map transforms a strategy's non-empty result.
func Map(s Strategy, fn func(string) string) Strategy {
	return func(page *goquery.Selection) string {
		v := s(page)
		if v == "" {
			return ""
		}
		return fn(v)
	}
}

var spaces = regexp.MustCompile(`\s+`)

func CleanText(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

var numberToken = regexp.MustCompile(`(\d[\d,]*)(\.\d+)?\s*([kK])?`)

// ParseInteger normalizes price, mileage and year text to an integer. It
// takes the first number in raw, drops thousands separators and decimals,
// and treats a trailing k as thousands ("85K miles" is 85000, "12.5k" is
// 12500, "150Kmi" is 150000). Text with no digits, such as "Contact for
// price", and numbers too large for an int do not parse.
func ParseInteger(raw string) (int, bool) {
	m := numberToken.FindStringSubmatchIndex(raw)
	if m == nil {
		return 0, false
	}
	digits := strings.ReplaceAll(raw[m[2]:m[3]], ",", "")
	if m[6] >= 0 && thousandsSuffix(raw[m[7]:]) {
		frac := ""
		if m[4] >= 0 {
			frac = raw[m[4]:m[5]]
		}
		f, err := strconv.ParseFloat(digits+frac, 64)
		if err != nil {
			return 0, false
		}
		v := math.Round(f * 1000)
		if math.IsInf(v, 0) || math.IsNaN(v) || v >= math.MaxInt64 {
			return 0, false
		}
		return int(v), true
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// thousandsSuffix reports whether a k followed by rest is a multiplier and
// not the start of a word such as "km". A glued "mi" unit is allowed.
func thousandsSuffix(rest string) bool {
	if rest == "" || strings.HasPrefix(strings.ToLower(rest), "mi") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r)
}
