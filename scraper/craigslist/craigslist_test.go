package craigslist

import (
	"net/url"
	"strings"
	"testing"
	"time"
	"truck-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingURL = "https://portland.craigslist.org/mlt/cto/d/portland-2015-ford-150-xlt/7712345678.html"

const fullPosting = `<html><body>
<h1 class="postingtitle"><span class="postingtitletext">
  <span id="titletextonly">2015 Ford F-150 XLT 4x4</span>
  <span class="price">$24,500</span>
  <small> (Portland) </small>
</span></h1>
<div class="mapAndAttrs">
  <div class="mapbox">
    <div id="map" data-latitude="45.52" data-longitude="-122.68"></div>
    <div class="mapaddress">1200 SE Morrison St <a href="https://maps.google.com/?q=loc%3A+1200+SE+Morrison">google map</a></div>
  </div>
  <div class="attrgroup">
    <div class="attr important"><span class="valu year">2015</span> <span class="valu makemodel">ford f-150</span></div>
    <div class="attr auto_vin"><span class="labl">VIN:</span><span class="valu">1FTFW1EF5FFA12345</span></div>
    <div class="attr auto_miles"><span class="labl">odometer:</span><span class="valu">98,400</span></div>
    <div class="attr auto_cylinders"><span class="labl">cylinders:</span><span class="valu">8 cylinders</span></div>
    <div class="attr auto_drivetrain"><span class="labl">drive:</span><span class="valu">4wd</span></div>
    <div class="attr auto_fuel_type"><span class="labl">fuel:</span><span class="valu">gas</span></div>
    <div class="attr auto_paint"><span class="labl">paint color:</span><span class="valu">white</span></div>
    <div class="attr auto_transmission"><span class="labl">transmission:</span><span class="valu">automatic</span></div>
    <div class="attr auto_bodytype"><span class="labl">type:</span><span class="valu">pickup</span></div>
  </div>
</div>
<section id="postingbody">Runs great.</section>
<div class="postinginfos">
  <p class="postinginfo">posted: <time class="date timeago" datetime="2026-10-01T09:15:00-0700">2026-10-01 09:15</time></p>
</div>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func newTestSite() *Site {
	s := New()
	s.now = func() time.Time { return time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC) }
	return s
}

func TestExtractFullPosting(t *testing.T) {
	s := newTestSite()
	l := s.Extract(postingURL, parse(t, fullPosting).Selection)

	want := map[models.Field]string{
		models.FieldURL:          postingURL,
		models.FieldTitle:        "2015 Ford F-150 XLT 4x4",
		models.FieldPrice:        "24500",
		models.FieldYear:         "2015",
		models.FieldMake:         "ford",
		models.FieldModel:        "f-150",
		models.FieldVIN:          "1FTFW1EF5FFA12345",
		models.FieldMileage:      "98400",
		models.FieldCylinders:    "8 cylinders",
		models.FieldDrive:        "4wd",
		models.FieldFuel:         "gas",
		models.FieldColor:        "white",
		models.FieldTransmission: "automatic",
		models.FieldType:         "pickup",
		models.FieldLocation:     "Portland - 1200 SE Morrison St",
		models.FieldMapsLink:     "https://maps.google.com/?q=loc%3A+1200+SE+Morrison",
		models.FieldDatePosted:   "2026-10-01T09:15:00-0700",
		models.FieldDateScraped:  "2026-10-17 08:30:00",
		models.FieldSource:       "Craigslist",
	}
	assert.Equal(t, want, l.Fields)
	assert.Equal(t, models.Craigslist, l.Site)
	assert.Len(t, l.Row(s.Schema(), "N/A"), 19)
}

func TestExtractMissingFieldsAreIndependent(t *testing.T) {
	html := `<html><body>
<span id="titletextonly">2011 Chevrolet Silverado 2500HD</span>
<div class="attr auto_miles"><span class="valu">150k</span></div>
</body></html>`

	l := newTestSite().Extract(postingURL, parse(t, html).Selection)

	assert.Equal(t, "2011 Chevrolet Silverado 2500HD", l.Fields[models.FieldTitle])
	assert.Equal(t, "150000", l.Fields[models.FieldMileage])
	assert.Equal(t, "2011", l.Fields[models.FieldYear], "year falls back to the title")
	assert.Equal(t, "Chevrolet", l.Fields[models.FieldMake])
	assert.Equal(t, "Silverado 2500HD", l.Fields[models.FieldModel])

	for _, f := range []models.Field{
		models.FieldPrice, models.FieldVIN, models.FieldCylinders, models.FieldDrive,
		models.FieldLocation, models.FieldMapsLink, models.FieldDatePosted,
	} {
		assert.False(t, l.Has(f), "%s should be null", f)
	}
	head := models.Schema{Site: models.Craigslist, Fields: []models.Field{models.FieldURL, models.FieldTitle, models.FieldPrice}}
	assert.Equal(t, []string{postingURL, "2011 Chevrolet Silverado 2500HD", "N/A"}, l.Row(head, "N/A"))
}

func TestExtractContactForPriceIsNull(t *testing.T) {
	html := `<span id="titletextonly">Old work truck</span><span class="price">Contact for price</span>`
	l := newTestSite().Extract(postingURL, parse(t, html).Selection)

	assert.False(t, l.Has(models.FieldPrice))
	assert.Equal(t, "Old work truck", l.Fields[models.FieldTitle])
	assert.False(t, l.Has(models.FieldYear), "a title without a year yields no year")
}

func TestExtractOlderAttributeLayout(t *testing.T) {
	html := `<span id="titletextonly">2008 Toyota Tacoma</span>
<p class="attrgroup">
  <span>VIN: <b>5TELU42N08Z512345</b></span>
  <span>odometer: <b>201,000</b></span>
  <span>fuel: <b>gas</b></span>
  <span>paint color: <b>silver</b></span>
</p>
<div id="map" data-latitude="45.1" data-longitude="-122.2"></div>`

	l := newTestSite().Extract(postingURL, parse(t, html).Selection)

	assert.Equal(t, "5TELU42N08Z512345", l.Fields[models.FieldVIN])
	assert.Equal(t, "201000", l.Fields[models.FieldMileage])
	assert.Equal(t, "gas", l.Fields[models.FieldFuel])
	assert.Equal(t, "silver", l.Fields[models.FieldColor])
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=45.1,-122.2", l.Fields[models.FieldMapsLink])
}

func TestExtractTitleFromURL(t *testing.T) {
	l := newTestSite().Extract(postingURL, parse(t, `<html><body><p>removed</p></body></html>`).Selection)
	assert.Equal(t, "Portland 2015 Ford 150 Xlt", l.Fields[models.FieldTitle])
	assert.Equal(t, postingURL, l.URL())
	assert.Equal(t, "Craigslist", l.Fields[models.FieldSource])
}

func TestDiscoverAndNextPage(t *testing.T) {
	html := `<html><body><ol>
<li class="cl-search-result" data-pid="1"><a href="/mlt/cto/d/truck-one/1.html?lang=en">one</a></li>
<li class="cl-search-result" data-pid="2"><a href="https://portland.craigslist.org/clk/cto/d/truck-two/2.html#photos">two</a></li>
<li class="cl-search-result" data-pid="1"><a href="/mlt/cto/d/truck-one/1.html">one again</a></li>
<li class="cl-search-result"><a href="/search/cta?s=120">not a posting</a></li>
</ol>
<a class="button next" href="/search/cta?query=truck&s=120">next</a>
</body></html>`

	base, _ := url.Parse("https://portland.craigslist.org/search/cta?query=truck")
	doc := parse(t, html)
	s := New()

	var urls []string
	for _, c := range s.Discover(doc, base) {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{
		"https://portland.craigslist.org/mlt/cto/d/truck-one/1.html",
		"https://portland.craigslist.org/clk/cto/d/truck-two/2.html",
	}, urls)

	assert.Equal(t, "https://portland.craigslist.org/search/cta?query=truck&s=120", s.NextPage(doc, base))
	assert.Empty(t, s.NextPage(parse(t, `<p>last page</p>`), base))
}

func TestDiscoverPrefersResultNodes(t *testing.T) {
	html := `<div class="result-node"><a class="cl-app-anchor" href="/d/a/1.html">a</a></div>
<div class="cl-search-result"><a href="/d/b/2.html">b</a></div>`
	base, _ := url.Parse("https://seattle.craigslist.org/search/cta")

	got := New().Discover(parse(t, html), base)
	require.Len(t, got, 1)
	assert.Equal(t, "https://seattle.craigslist.org/d/a/1.html", got[0].URL)
}
