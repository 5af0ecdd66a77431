package scraper_test

import (
	"net/url"
	"regexp"
	"strings"
	"testing"
	"truck-scraper/models"
	"truck-scraper/scraper"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"$12,500", 12500, true},
		{"85K miles", 85000, true},
		{"12.5k", 12500, true},
		{"98,400 mi", 98400, true},
		{"2015", 2015, true},
		{"$4,999.99", 4999, true},
		{"150 km", 150, true},
		{"85,000mi", 85000, true},
		{"85000mi", 85000, true},
		{"150Kmi", 150000, true},
		{"$99999999999999999k", 0, false},
		{"99999999999999999999", 0, false},
		{"Contact for price", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := scraper.ParseInteger(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstUsesStrategyOrder(t *testing.T) {
	p := page(t, `<h1 class="a">  </h1><h2 class="b">second</h2><h3 class="c">third</h3>`)
	assert.Equal(t, "second", scraper.First(p, scraper.Text(".a"), scraper.Text(".b"), scraper.Text(".c")))
	assert.Empty(t, scraper.First(p, scraper.Text(".missing")))
}

func TestStrategies(t *testing.T) {
	p := page(t, `
<div class="card" data-id="42">
  <p class="attrgroup"><span>odometer: <b>120,000</b></span><span>title status: clean</span></p>
  <div class="head">Price <em>ignored</em></div>
  <section id="body">Selling my truck. VIN 1FTFW1EF5FFA12345, runs well.</section>
</div>`)

	assert.Equal(t, "120,000", scraper.Labeled(".attrgroup span", "Odometer")(p))
	assert.Equal(t, "clean", scraper.Labeled(".attrgroup span", "title status")(p))
	assert.Empty(t, scraper.Labeled(".attrgroup span", "fuel")(p))

	assert.Equal(t, "Price", scraper.OwnText(".head")(p))
	assert.Equal(t, "Price ignored", scraper.Text(".head")(p))
	assert.Equal(t, "42", scraper.Attr(".card", "data-id")(p))

	vin := regexp.MustCompile(`VIN\s+([A-Z0-9]{17})`)
	assert.Equal(t, "1FTFW1EF5FFA12345", scraper.Pattern("#body", vin)(p))
	assert.Empty(t, scraper.Pattern(".head", vin)(p))

	upper := scraper.Map(scraper.Text(".head em"), strings.ToUpper)
	assert.Equal(t, "IGNORED", upper(p))
	assert.Empty(t, scraper.Map(scraper.Text(".none"), strings.ToUpper)(p))

	card := p.Find(".card")
	assert.Equal(t, "42", scraper.Attr("", "data-id")(card))
}

func TestApplyNormalizesNumericFields(t *testing.T) {
	p := page(t, `<span class="price">Call for price</span><span class="alt">$9,800</span><span class="miles">about 60k</span><b>red</b>`)

	l := models.NewListing(models.Craigslist, "https://x.craigslist.org/d/a/1.html")
	scraper.Apply(&l, p, []scraper.Rule{
		{Field: models.FieldPrice, Strategies: []scraper.Strategy{scraper.Text(".price"), scraper.Text(".alt")}},
		{Field: models.FieldMileage, Strategies: []scraper.Strategy{scraper.Text(".miles")}},
		{Field: models.FieldColor, Strategies: []scraper.Strategy{scraper.Text("b")}},
		{Field: models.FieldYear, Strategies: []scraper.Strategy{scraper.Text(".year")}},
	})

	assert.False(t, l.Has(models.FieldPrice), "the first non-empty value wins even when it is not a number")
	assert.Equal(t, "60000", l.Fields[models.FieldMileage])
	assert.Equal(t, "red", l.Fields[models.FieldColor])
	assert.False(t, l.Has(models.FieldYear))
	assert.Equal(t, "https://x.craigslist.org/d/a/1.html", l.URL())
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://boise.craigslist.org/search/cta?query=truck")

	assert.Equal(t, "https://boise.craigslist.org/d/x/1.html", scraper.Resolve(base, "/d/x/1.html#pics"))
	assert.Equal(t, "https://a.example/b", scraper.Resolve(base, "https://a.example/b"))
	assert.Empty(t, scraper.Resolve(base, "mailto:a@b.c"))
	assert.Empty(t, scraper.Resolve(nil, "/relative"))
}
