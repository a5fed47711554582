package reports

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"visitlog/internal/pkg/async"
	"visitlog/internal/pkg/locale"
	"visitlog/internal/pkg/referrers"
	"visitlog/internal/visits"
)

// DeviceBucket counts visits per device type.
type DeviceBucket struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// LanguageBucket counts visits per language tag with a readable label.
type LanguageBucket struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// CountryBucket counts visits per country. Code is the stored ISO code.
type CountryBucket struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// ReferrerBucket counts visits per traffic source.
type ReferrerBucket struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Breakdown groups the visits table by device, language, country and referrer source.
type Breakdown struct {
	Devices   []DeviceBucket   `json:"devices"`
	Languages []LanguageBucket `json:"languages"`
	Countries []CountryBucket  `json:"countries"`
	Referrers []ReferrerBucket `json:"referrers"`
}

const unknownCountry = "Unknown"

var (
	countryQuery = gountries.New()
	upperCaser   = cases.Upper(language.Und)
)

// Breakdown runs the group-by queries concurrently.
func (r *Reporter) Breakdown(ctx context.Context) (Breakdown, error) {
	columns := []string{"device_type", "language", "country", "referrer"}
	tasks := make([]async.Task[[]visits.GroupCount], 0, len(columns))
	for _, column := range columns {
		tasks = append(tasks, async.Task[[]visits.GroupCount]{
			Name: column,
			Execute: func(ctx context.Context) ([]visits.GroupCount, error) {
				return r.store.CountBy(ctx, column)
			},
		})
	}

	results := async.NewPool[[]visits.GroupCount](len(tasks)).Execute(ctx, tasks)
	for _, column := range columns {
		if err := results[column].Err; err != nil {
			r.logger.Error("Breakdown query failed", slog.String("column", column), slog.Any("error", err))
			return Breakdown{}, err
		}
	}

	out := Breakdown{
		Devices:   make([]DeviceBucket, 0, len(results["device_type"].Data)),
		Languages: make([]LanguageBucket, 0, len(results["language"].Data)),
		Countries: make([]CountryBucket, 0, len(results["country"].Data)),
	}
	for _, row := range results["device_type"].Data {
		out.Devices = append(out.Devices, DeviceBucket{Name: row.Name, Count: row.Count})
	}
	for _, row := range results["language"].Data {
		out.Languages = append(out.Languages, LanguageBucket{
			Name:  row.Name,
			Label: locale.DisplayName(row.Name),
			Count: row.Count,
		})
	}
	for _, row := range results["country"].Data {
		out.Countries = append(out.Countries, CountryBucket{
			Name:  CountryName(row.Name),
			Code:  row.Name,
			Count: row.Count,
		})
	}
	out.Referrers = referrerSources(results["referrer"].Data)
	return out, nil
}

// referrerSources folds raw referrer URLs into sources, largest first.
func referrerSources(rows []visits.GroupCount) []ReferrerBucket {
	index := make(map[string]int, len(rows))
	buckets := make([]ReferrerBucket, 0, len(rows))
	for _, row := range rows {
		name := referrers.Source(row.Name)
		if i, ok := index[name]; ok {
			buckets[i].Count += row.Count
			continue
		}
		index[name] = len(buckets)
		buckets = append(buckets, ReferrerBucket{Name: name, Count: row.Count})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// CountryName returns the common English name of an ISO alpha-2 code.
// Unknown codes are echoed upper-cased. An empty code is "Unknown".
func CountryName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return unknownCountry
	}
	country, err := countryQuery.FindCountryByAlpha(code)
	if err != nil {
		return upperCaser.String(code)
	}
	return country.Name.Common
}
