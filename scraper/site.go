package scraper

import (
	"net/url"
	"truck-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

type Pagination int

const (
	// NextLinks sites expose a link to the following results page.
	NextLinks Pagination = iota
	// InfiniteScroll sites append results as the page is scrolled.
	InfiniteScroll
)

// Candidate is a listing found on a results page. Card is the result
// element it came from, kept for sites that extract from the card.
type Candidate struct {
	URL  string
	Card *goquery.Selection
}

// Site describes how to traverse and extract one classifieds site.
type Site interface {
	Name() models.Site
	Schema() models.Schema
	Pagination() Pagination

	// ResultsSelector matches once search results have rendered.
	ResultsSelector() string
	// LoadingSelector matches a lazy-load spinner, or is empty.
	LoadingSelector() string
	// Discover returns candidates in page order with canonical URLs.
	Discover(page *goquery.Document, base *url.URL) []Candidate
	// NextPage returns the absolute URL of the following results page, or
	// an empty string on the last page.
	NextPage(page *goquery.Document, base *url.URL) string

	// ListingSelector is waited for after visiting a listing. Sites that
	// extract straight from result cards return an empty string and their
	// listings are never visited.
	ListingSelector() string
	Extract(listingURL string, page *goquery.Selection) models.Listing
}

// LoginSite is a Site that needs an authenticated session.
type LoginSite interface {
	Site
	HomeURL() string
	// LoginRequired reports whether the page is a login wall.
	LoginRequired(page *goquery.Document, location string) bool
}

// Resolve makes href absolute against base. It returns an empty string for
// hrefs that cannot be parsed or are not http(s).
func Resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}
