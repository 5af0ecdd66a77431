// Package craigslist finds vehicle listings on Craigslist search pages and
// extracts the full vehicle record from each posting page.
package craigslist

import (
	"net/url"
	"strings"
	"time"
	"truck-scraper/models"
	"truck-scraper/scraper"

	"github.com/PuerkitoBio/goquery"
)

// Source is the value written to the source column.
const Source = "Craigslist"

const dateScrapedLayout = "2006-01-02 15:04:05"

// Result link selectors, tried in order. The first group that yields any
// posting link wins, matching the search page layouts Craigslist serves.
var resultLinks = []string{
	".result-node a.cl-app-anchor",
	".cl-search-result a",
	"[data-pid] a",
	"li.result-row a.result-title",
}

var nextPageLinks = []string{
	"a.button.next",
	"a.next",
	"a[rel='next']",
	"link[rel='next']",
}

type Site struct {
	now   func() time.Time
	rules []scraper.Rule
}

var _ scraper.Site = (*Site)(nil)

func New() *Site {
	return &Site{now: time.Now, rules: rules()}
}

func (s *Site) Name() models.Site { return models.Craigslist }
func (s *Site) Schema() models.Schema { return models.CraigslistSchema }
func (s *Site) Pagination() scraper.Pagination { return scraper.NextLinks }

func (s *Site) ResultsSelector() string {
	return ".result-node, .cl-search-result, [data-pid], li.result-row"
}

func (s *Site) LoadingSelector() string { return "" }

func (s *Site) ListingSelector() string {
	return "#titletextonly, .postingtitle, #postingbody"
}

func (s *Site) Discover(page *goquery.Document, base *url.URL) []scraper.Candidate {
	for _, sel := range resultLinks {
		var found []scraper.Candidate
		seen := make(map[string]bool)
		page.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			u := canonical(base, href)
			if u == "" || seen[u] {
				return
			}
			seen[u] = true
			found = append(found, scraper.Candidate{URL: u, Card: a})
		})
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

func (s *Site) NextPage(page *goquery.Document, base *url.URL) string {
	for _, sel := range nextPageLinks {
		href, ok := page.Find(sel).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		if next := scraper.Resolve(base, href); next != "" && (base == nil || next != base.String()) {
			return next
		}
	}
	return ""
}

// canonical returns the posting URL without query or fragment, or an empty
// string for links that are not postings.
func canonical(base *url.URL, href string) string {
	abs := scraper.Resolve(base, href)
	if abs == "" {
		return ""
	}
	u, err := url.Parse(abs)
	if err != nil || !strings.Contains(u.Path, "/d/") {
		return ""
	}
	u.RawQuery = ""
	return u.String()
}
