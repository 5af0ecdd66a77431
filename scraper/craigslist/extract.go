package craigslist

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"truck-scraper/models"
	"truck-scraper/scraper"

	"github.com/PuerkitoBio/goquery"
)

// Older postings put attributes in ".attrgroup span" as "label: <b>value</b>".
const attrGroup = ".attrgroup span"

var (
	titleStrategies = []scraper.Strategy{
		scraper.Text("#titletextonly"),
		scraper.Text(".postingtitletext .titletextonly"),
		scraper.Text("h1 .titletextonly"),
		scraper.Text(".postingtitle"),
	}

	// "2015 Ford F-150 XLT 4x4" → year, make, model.
	yearMakeModel = regexp.MustCompile(`^(\d{4})\s+([A-Za-z]+)\s+([A-Za-z0-9\-\s]+)`)

	mapAddressSuffix = regexp.MustCompile(`(?i)\(?google map.*$`)
)

func attr(class string) scraper.Strategy {
	return scraper.Text(".attr." + class + " .valu")
}

func rules() []scraper.Rule {
	return []scraper.Rule{
		{Field: models.FieldTitle, Strategies: titleStrategies},
		{Field: models.FieldPrice, Strategies: []scraper.Strategy{
			scraper.Text(".postingtitletext .price"),
			scraper.Text(".price"),
			scraper.Pattern(".postingtitletext", regexp.MustCompile(`(\$\s*[\d,]+)`)),
		}},
		{Field: models.FieldYear, Strategies: []scraper.Strategy{
			scraper.Text(".attr.important .year"),
			fromTitle(1),
		}},
		{Field: models.FieldMake, Strategies: []scraper.Strategy{
			scraper.Map(scraper.Text(".attr.important .makemodel"), firstWord),
			fromTitle(2),
		}},
		{Field: models.FieldModel, Strategies: []scraper.Strategy{
			scraper.Map(scraper.Text(".attr.important .makemodel"), restWords),
			fromTitle(3),
		}},
		{Field: models.FieldVIN, Strategies: []scraper.Strategy{
			attr("auto_vin"),
			scraper.Labeled(attrGroup, "VIN"),
			scraper.Pattern("#postingbody", regexp.MustCompile(`(?i)\bVIN[:#\s]*([A-HJ-NPR-Z0-9]{17})\b`)),
		}},
		{Field: models.FieldMileage, Strategies: []scraper.Strategy{
			attr("auto_miles"),
			scraper.Labeled(attrGroup, "odometer"),
		}},
		{Field: models.FieldCylinders, Strategies: []scraper.Strategy{
			attr("auto_cylinders"),
			scraper.Labeled(attrGroup, "cylinders"),
		}},
		{Field: models.FieldDrive, Strategies: []scraper.Strategy{
			attr("auto_drivetrain"),
			scraper.Labeled(attrGroup, "drive"),
		}},
		{Field: models.FieldFuel, Strategies: []scraper.Strategy{
			attr("auto_fuel_type"),
			scraper.Labeled(attrGroup, "fuel"),
		}},
		{Field: models.FieldColor, Strategies: []scraper.Strategy{
			attr("auto_paint"),
			scraper.Labeled(attrGroup, "paint color"),
		}},
		{Field: models.FieldTransmission, Strategies: []scraper.Strategy{
			attr("auto_transmission"),
			scraper.Labeled(attrGroup, "transmission"),
		}},
		{Field: models.FieldType, Strategies: []scraper.Strategy{
			attr("auto_bodytype"),
			scraper.Labeled(attrGroup, "type"),
		}},
		{Field: models.FieldLocation, Strategies: []scraper.Strategy{location}},
		{Field: models.FieldMapsLink, Strategies: []scraper.Strategy{
			scraper.Attr(".mapaddress a", "href"),
			mapsFromCoordinates,
		}},
		{Field: models.FieldDatePosted, Strategies: []scraper.Strategy{
			scraper.Attr("time.date.timeago", "datetime"),
			scraper.Attr("time.date.timeago", "title"),
			scraper.Text("time.date.timeago"),
			scraper.Text(".postinginfos .postinginfo:first-child .date"),
		}},
	}
}

// Extract builds the full record for one posting page. Fields the page
// does not show are left null.
func (s *Site) Extract(listingURL string, page *goquery.Selection) models.Listing {
	listing := models.NewListing(models.Craigslist, listingURL)
	scraper.Apply(&listing, page, s.rules)

	if !listing.Has(models.FieldTitle) {
		listing.Set(models.FieldTitle, titleFromURL(listingURL))
	}
	listing.Set(models.FieldDateScraped, s.now().Format(dateScrapedLayout))
	listing.Set(models.FieldSource, Source)
	return listing
}

func fromTitle(group int) scraper.Strategy {
	return func(page *goquery.Selection) string {
		m := yearMakeModel.FindStringSubmatch(scraper.First(page, titleStrategies...))
		if m == nil {
			return ""
		}
		return strings.TrimSpace(m[group])
	}
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func restWords(s string) string {
	f := strings.Fields(s)
	if len(f) < 2 {
		return ""
	}
	return strings.Join(f[1:], " ")
}

// location joins the neighbourhood hint in the title bar with the street
// address shown above the map.
func location(page *goquery.Selection) string {
	var parts []string

	hint := strings.Trim(scraper.CleanText(page.Find(".postingtitletext small").First().Text()), "() ")
	if hint != "" {
		parts = append(parts, hint)
	}

	addr := scraper.CleanText(page.Find(".mapaddress").First().Text())
	addr = strings.TrimSpace(mapAddressSuffix.ReplaceAllString(addr, ""))
	if addr != "" && addr != hint {
		parts = append(parts, addr)
	}
	return strings.Join(parts, " - ")
}

func mapsFromCoordinates(page *goquery.Selection) string {
	m := page.Find("#map").First()
	lat, _ := m.Attr("data-latitude")
	lon, _ := m.Attr("data-longitude")
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s", lat, lon)
}

// titleFromURL turns ".../d/ford-f150-xlt/7712345678.html" into
// "Ford F150 Xlt".
func titleFromURL(listingURL string) string {
	u, err := url.Parse(listingURL)
	if err != nil {
		return ""
	}
	slug := path.Base(u.Path)
	if i := strings.Index(u.Path, "/d/"); i >= 0 {
		slug = strings.SplitN(u.Path[i+3:], "/", 2)[0]
	}
	slug = strings.TrimSuffix(slug, ".html")

	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
