package facebook

import (
	"net/url"
	"strings"
	"testing"
	"truck-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const results = `<html><body><div role="main">
<a href="/marketplace/item/111/?ref=search&referral_code=abc" role="link">
  <div><img alt="2016 Toyota Tacoma TRD Off-Road" src="x.jpg"></div>
  <div><span dir="auto"><span>$27,900</span></span><span dir="auto"><span>$29,500</span></span></div>
  <div><span dir="auto"><span>2016 Toyota Tacoma</span></span></div>
  <div><span dir="auto"><span>Boise, ID</span></span></div>
  <div><span dir="auto"><span>88K miles</span></span></div>
</a>
<a href="https://www.facebook.com/marketplace/item/222/?ref=search" role="link">
  <div><span style="-webkit-line-clamp: 2">Ford F-250 work truck</span></div>
  <div><span dir="auto">Free</span></div>
  <div><span dir="auto">Reno, NV</span></div>
</a>
<a href="/marketplace/item/111/?ref=other" role="link"><img alt="duplicate"></a>
<a href="/marketplace/category/vehicles">Vehicles</a>
<div role="progressbar"></div>
</div></body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func base() *url.URL {
	u, _ := url.Parse("https://www.facebook.com/marketplace/boise/search?query=truck")
	return u
}

func TestDiscoverCanonicalizesAndDedups(t *testing.T) {
	got := New().Discover(parse(t, results), base())
	require.Len(t, got, 2)
	assert.Equal(t, "https://www.facebook.com/marketplace/item/111/", got[0].URL)
	assert.Equal(t, "https://www.facebook.com/marketplace/item/222/", got[1].URL)
}

func TestExtractFromCards(t *testing.T) {
	s := New()
	cands := s.Discover(parse(t, results), base())
	require.Len(t, cands, 2)

	first := s.Extract(cands[0].URL, cands[0].Card)
	assert.Equal(t, map[models.Field]string{
		models.FieldURL:      "https://www.facebook.com/marketplace/item/111/",
		models.FieldTitle:    "2016 Toyota Tacoma TRD Off-Road",
		models.FieldPrice:    "27900",
		models.FieldMileage:  "88000",
		models.FieldLocation: "Boise, ID",
	}, first.Fields)

	second := s.Extract(cands[1].URL, cands[1].Card)
	assert.Equal(t, "Ford F-250 work truck", second.Fields[models.FieldTitle])
	assert.Equal(t, "Reno, NV", second.Fields[models.FieldLocation])
	assert.False(t, second.Has(models.FieldPrice), "Free is not a price")
	assert.False(t, second.Has(models.FieldMileage))
	assert.Equal(t,
		[]string{"https://www.facebook.com/marketplace/item/222/", "Ford F-250 work truck", "N/A", "N/A", "Reno, NV"},
		second.Row(s.Schema(), "N/A"))
}

func TestExtractWithoutCard(t *testing.T) {
	l := New().Extract("https://www.facebook.com/marketplace/item/9/", nil)
	assert.Equal(t, map[models.Field]string{models.FieldURL: "https://www.facebook.com/marketplace/item/9/"}, l.Fields)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/marketplace/item/123/?ref=search", "https://www.facebook.com/marketplace/item/123/"},
		{"https://m.facebook.com/marketplace/item/123", "https://www.facebook.com/marketplace/item/123/"},
		{"/marketplace/item/abc/", ""},
		{"/marketplace/you/selling", ""},
		{"javascript:void(0)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(base(), tt.href))
		})
	}
}

func TestLoginRequired(t *testing.T) {
	s := New()

	assert.True(t, s.LoginRequired(parse(t, `<p>hi</p>`), "https://www.facebook.com/login/?next=%2Fmarketplace"))
	assert.True(t, s.LoginRequired(parse(t, `<p>hi</p>`), "https://www.facebook.com/checkpoint/block"))
	assert.True(t, s.LoginRequired(parse(t, `<form id="login_form"><input name="email"><input name="pass"></form>`),
		"https://www.facebook.com/marketplace/boise/search?query=truck"))
	assert.True(t, s.LoginRequired(nil, "https://www.facebook.com/"))

	assert.False(t, s.LoginRequired(parse(t, results), "https://www.facebook.com/marketplace/boise/search?query=truck"))
}

func TestLoadingSelectorMatchesSpinner(t *testing.T) {
	s := New()
	assert.Equal(t, 1, parse(t, results).Find(s.LoadingSelector()).Length())
	assert.Empty(t, s.ListingSelector())
	assert.Equal(t, models.FacebookSchema, s.Schema())
}
