package models

import (
	"fmt"
	"strconv"
	"strings"
)

type Site string

const (
	Craigslist Site = "craigslist"
	Facebook   Site = "facebook"
)

func ParseSite(s string) (Site, error) {
	switch Site(strings.ToLower(strings.TrimSpace(s))) {
	case Craigslist:
		return Craigslist, nil
	case Facebook:
		return Facebook, nil
	}
	return "", fmt.Errorf("unknown site %q", s)
}

// Field names one column of a listing. The string value is also the header
// cell written to the spreadsheet.
type Field string

const (
	FieldURL          Field = "url"
	FieldTitle        Field = "title"
	FieldPrice        Field = "price"
	FieldYear         Field = "year"
	FieldMake         Field = "make"
	FieldModel        Field = "model"
	FieldVIN          Field = "vin"
	FieldMileage      Field = "mileage"
	FieldCylinders    Field = "cylinders"
	FieldDrive        Field = "drive"
	FieldFuel         Field = "fuel"
	FieldColor        Field = "color"
	FieldTransmission Field = "transmission"
	FieldType         Field = "type"
	FieldLocation     Field = "location"
	FieldMapsLink     Field = "maps_link"
	FieldDatePosted   Field = "date_posted"
	FieldDateScraped  Field = "date_scraped"
	FieldSource       Field = "source"
)

// NumericFields are normalized to plain integers during extraction.
var NumericFields = map[Field]bool{
	FieldPrice:   true,
	FieldMileage: true,
	FieldYear:    true,
}

type Schema struct {
	Site   Site
	Fields []Field
}

var CraigslistSchema = Schema{
	Site: Craigslist,
	Fields: []Field{
		FieldURL, FieldTitle, FieldPrice, FieldYear, FieldMake, FieldModel,
		FieldVIN, FieldMileage, FieldCylinders, FieldDrive, FieldFuel,
		FieldColor, FieldTransmission, FieldType, FieldLocation,
		FieldMapsLink, FieldDatePosted, FieldDateScraped, FieldSource,
	},
}

var FacebookSchema = Schema{
	Site:   Facebook,
	Fields: []Field{FieldURL, FieldTitle, FieldPrice, FieldMileage, FieldLocation},
}

func SchemaFor(site Site) (Schema, error) {
	switch site {
	case Craigslist:
		return CraigslistSchema, nil
	case Facebook:
		return FacebookSchema, nil
	}
	return Schema{}, fmt.Errorf("no schema for site %q", site)
}

// Header returns the field names in declared order.
func (s Schema) Header() []string {
	header := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		header[i] = string(f)
	}
	return header
}

func (s Schema) Has(f Field) bool {
	for _, field := range s.Fields {
		if field == f {
			return true
		}
	}
	return false
}

// Listing is one extracted record. A field missing from Fields is null.
type Listing struct {
	Site   Site
	Fields map[Field]string
}

func NewListing(site Site, url string) Listing {
	l := Listing{Site: site, Fields: make(map[Field]string)}
	l.Set(FieldURL, url)
	return l
}

// Set stores a trimmed value. Empty values are dropped so they read as null.
func (l *Listing) Set(f Field, value string) {
	if l.Fields == nil {
		l.Fields = make(map[Field]string)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(l.Fields, f)
		return
	}
	l.Fields[f] = value
}

func (l Listing) Get(f Field) (string, bool) {
	v, ok := l.Fields[f]
	return v, ok
}

func (l Listing) URL() string {
	return l.Fields[FieldURL]
}

func (l Listing) Has(f Field) bool {
	_, ok := l.Fields[f]
	return ok
}

// Int reads a numeric field. It reports false for null or non-numeric values.
func (l Listing) Int(f Field) (int, bool) {
	v, ok := l.Fields[f]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Row renders the listing in schema order, writing null for absent fields.
func (l Listing) Row(schema Schema, null string) []string {
	row := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		if v, ok := l.Fields[f]; ok {
			row[i] = v
		} else {
			row[i] = null
		}
	}
	return row
}
