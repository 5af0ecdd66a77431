package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"truck-scraper/models"
)

// Report summarizes how complete a run's listings are.
type Report struct {
	Site               models.Site
	TotalListings      int
	WithPrice          int
	WithLocation       int
	WithVIN            int
	WithMileage        int
	AveragePrice       float64
	MinPrice           int
	MaxPrice           int
	MostExpensive      models.Listing
	ListingsByLocation map[string]int
}

// GenerateReport counts field coverage and computes price statistics over
// the listings that have a price.
func GenerateReport(site models.Site, listings []models.Listing) Report {
	report := Report{
		Site:               site,
		TotalListings:      len(listings),
		ListingsByLocation: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	var (
		priceSum int
		maxPrice = -1
		minPrice = math.MaxInt
	)

	for _, l := range listings {
		location, _ := l.Get(models.FieldLocation)
		report.ListingsByLocation[normalizeLocation(location)]++

		if l.Has(models.FieldLocation) {
			report.WithLocation++
		}
		if l.Has(models.FieldVIN) {
			report.WithVIN++
		}
		if l.Has(models.FieldMileage) {
			report.WithMileage++
		}

		price, ok := l.Int(models.FieldPrice)
		if !ok {
			continue
		}
		report.WithPrice++
		priceSum += price

		if price > maxPrice {
			maxPrice = price
			report.MostExpensive = l
		}
		if price < minPrice {
			minPrice = price
		}
	}

	if report.WithPrice > 0 {
		report.AveragePrice = float64(priceSum) / float64(report.WithPrice)
		report.MinPrice = minPrice
		report.MaxPrice = maxPrice
	}

	return report
}

func PrintReport(w io.Writer, report Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(w, "│ %-60s │\n", "Truck Listing Summary: "+string(report.Site))
	fmt.Fprintln(w, "├───────────────────────────────┬──────────────────────────────┤")
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Total Listings", report.TotalListings)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "With Price", report.WithPrice)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "With Location", report.WithLocation)
	if report.Site == models.Craigslist {
		fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "With VIN", report.WithVIN)
	}
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "With Mileage", report.WithMileage)
	if report.WithPrice > 0 {
		fmt.Fprintf(w, "│ %-29s │ %-28s │\n", "Average Price", "$"+formatThousands(int(math.Round(report.AveragePrice))))
		fmt.Fprintf(w, "│ %-29s │ %-28s │\n", "Minimum Price", "$"+formatThousands(report.MinPrice))
		fmt.Fprintf(w, "│ %-29s │ %-28s │\n", "Maximum Price", "$"+formatThousands(report.MaxPrice))
	}
	fmt.Fprintln(w, "└───────────────────────────────┴──────────────────────────────┘")

	if title, ok := report.MostExpensive.Get(models.FieldTitle); ok {
		fmt.Fprintf(w, "Most expensive: %s ($%s)\n", truncateText(title, 60), formatThousands(report.MaxPrice))
	}

	if len(report.ListingsByLocation) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────────────────────┬───────────────┐")
	fmt.Fprintln(w, "│ Listings per Location                        │ Count         │")
	fmt.Fprintln(w, "├──────────────────────────────────────────────┼───────────────┤")
	for _, loc := range sortedLocations(report.ListingsByLocation) {
		fmt.Fprintf(w, "│ %-44s │ %-13d │\n", truncateText(loc, 44), report.ListingsByLocation[loc])
	}
	fmt.Fprintln(w, "└──────────────────────────────────────────────┴───────────────┘")
}

func normalizeLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return "Unknown"
	}
	return location
}

// sortedLocations orders by count, busiest first, then by name.
func sortedLocations(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] == m[keys[j]] {
			return keys[i] < keys[j]
		}
		return m[keys[i]] > m[keys[j]]
	})
	return keys
}

func formatThousands(n int) string {
	s := strconv.FormatInt(int64(n), 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
