// Package facebook reads vehicle listings from Facebook Marketplace search
// results. Marketplace only shows results to a logged in account, and every
// field is taken from the result card, so item pages are never visited.
package facebook

import (
	"net/url"
	"regexp"
	"strings"
	"truck-scraper/models"
	"truck-scraper/scraper"

	"github.com/PuerkitoBio/goquery"
)

const (
	HomeURL = "https://www.facebook.com/"

	itemLinks = "a[href*='/marketplace/item/']"
)

var itemPath = regexp.MustCompile(`/marketplace/item/(\d+)`)

type Site struct {
	rules []scraper.Rule
}

var _ scraper.LoginSite = (*Site)(nil)

func New() *Site {
	return &Site{rules: rules()}
}

func (s *Site) Name() models.Site { return models.Facebook }
func (s *Site) Schema() models.Schema { return models.FacebookSchema }
func (s *Site) Pagination() scraper.Pagination { return scraper.InfiniteScroll }
func (s *Site) HomeURL() string { return HomeURL }

func (s *Site) ResultsSelector() string { return itemLinks }

func (s *Site) LoadingSelector() string {
	return "[role='progressbar'], [aria-label*='Loading']"
}

// ListingSelector is empty: listings are read from their result cards.
func (s *Site) ListingSelector() string { return "" }

func (s *Site) NextPage(*goquery.Document, *url.URL) string { return "" }

// Discover returns one candidate per item in page order. The card is the
// item's anchor, which wraps the photo, price, title and location.
func (s *Site) Discover(page *goquery.Document, base *url.URL) []scraper.Candidate {
	var found []scraper.Candidate
	seen := make(map[string]bool)
	page.Find(itemLinks).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u := Canonical(base, href)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		found = append(found, scraper.Candidate{URL: u, Card: a})
	})
	return found
}

// Canonical reduces an item link to https://www.facebook.com/marketplace/item/<id>/.
// Result links carry per-session tracking parameters, so the same item shows
// up under many hrefs.
func Canonical(base *url.URL, href string) string {
	abs := scraper.Resolve(base, href)
	if abs == "" {
		return ""
	}
	u, err := url.Parse(abs)
	if err != nil {
		return ""
	}
	m := itemPath.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	return "https://www.facebook.com/marketplace/item/" + m[1] + "/"
}

// LoginRequired reports whether Facebook answered with a login form or a
// checkpoint instead of the requested page.
func (s *Site) LoginRequired(page *goquery.Document, location string) bool {
	if u, err := url.Parse(location); err == nil {
		p := strings.ToLower(u.Path)
		if strings.HasPrefix(p, "/login") || strings.HasPrefix(p, "/checkpoint") {
			return true
		}
	}
	if page == nil {
		return true
	}
	if page.Find("form#login_form, form[action*='/login']").Length() > 0 {
		return true
	}
	return page.Find("input[name='pass']").Length() > 0 && page.Find(itemLinks).Length() == 0
}
