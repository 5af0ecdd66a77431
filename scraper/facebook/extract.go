package facebook

import (
	"regexp"
	"strings"
	"truck-scraper/models"
	"truck-scraper/scraper"

	"github.com/PuerkitoBio/goquery"
)

var cityState = regexp.MustCompile(`^[A-Za-z][A-Za-z .'\-]*, [A-Z]{2}$`)

func rules() []scraper.Rule {
	return []scraper.Rule{
		{Field: models.FieldTitle, Strategies: []scraper.Strategy{
			scraper.Attr("img", "alt"),
			scraper.Text("span[style*='-webkit-line-clamp']"),
		}},
		{Field: models.FieldPrice, Strategies: []scraper.Strategy{
			firstLine(isPrice, "span[dir='auto']"),
			firstLine(isPrice, ""),
		}},
		{Field: models.FieldMileage, Strategies: []scraper.Strategy{
			firstLine(isMileage, ""),
		}},
		{Field: models.FieldLocation, Strategies: []scraper.Strategy{
			firstLine(isLocation, ""),
		}},
	}
}

// Extract reads one result card.
func (s *Site) Extract(listingURL string, card *goquery.Selection) models.Listing {
	listing := models.NewListing(models.Facebook, listingURL)
	if card != nil {
		scraper.Apply(&listing, card, s.rules)
	}
	return listing
}

func isPrice(text string) bool {
	return len(text) > 1 && len(text) < 30 &&
		strings.HasPrefix(text, "$") && strings.ContainsAny(text, "0123456789")
}

func isMileage(text string) bool {
	return len(text) < 30 && strings.Contains(strings.ToLower(text), "mile")
}

func isLocation(text string) bool {
	return len(text) < 50 && cityState.MatchString(text) && !isMileage(text)
}

// firstLine returns the first leaf text under selector (or anywhere in the
// card when empty) that satisfies match. Cards have no stable class names,
// so values are recognised by their shape.
func firstLine(match func(string) bool, selector string) scraper.Strategy {
	return func(card *goquery.Selection) string {
		scope := card
		if selector != "" {
			scope = card.Find(selector)
		}
		for _, text := range leafTexts(scope) {
			if match(text) {
				return text
			}
		}
		return ""
	}
}

// leafTexts returns the cleaned text of elements with no element children,
// in document order, including the scope elements themselves.
func leafTexts(scope *goquery.Selection) []string {
	var texts []string
	scope.Each(func(_ int, s *goquery.Selection) {
		s.Find("*").AddSelection(s).Each(func(_ int, el *goquery.Selection) {
			if el.Children().Length() > 0 {
				return
			}
			if t := scraper.CleanText(el.Text()); t != "" {
				texts = append(texts, t)
			}
		})
	})
	return texts
}
