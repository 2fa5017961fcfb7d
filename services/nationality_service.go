package services

import (
	"occupancy-dashboard/models"
)

// NationalityClassifier buckets free-text nationality values into the
// fixed geopolitical taxonomy. The lookup index is built once at startup;
// classification afterwards is a pure map access.
type NationalityClassifier struct {
	index map[string]models.NationalityClass
}

// NewNationalityClassifier builds the classifier from the taxonomy table.
func NewNationalityClassifier() *NationalityClassifier {
	index := make(map[string]models.NationalityClass)

	for _, entry := range nationalityTaxonomy {
		for _, country := range entry.Countries {
			index[country] = models.NationalityClass{
				TopRegion: entry.Region,
				SubRegion: entry.SubRegion,
			}
		}
	}

	index[nationalityPhilippines] = models.NationalityClass{IsPhilippineResident: true}
	index[nationalityOverseasFilipino] = models.NationalityClass{IsOverseasFilipino: true}
	index[nationalityOverseasPlural] = models.NationalityClass{IsOverseasFilipino: true}

	return &NationalityClassifier{index: index}
}

// Classify maps one nationality string to its taxonomy bucket. Matching is
// exact and case-sensitive; anything unrecognized lands in the Others
// bucket, which is still counted in totals.
func (c *NationalityClassifier) Classify(nationality string) models.NationalityClass {
	if class, ok := c.index[nationality]; ok {
		return class
	}
	return models.NationalityClass{
		TopRegion: OthersBucket,
		SubRegion: OthersBucket,
	}
}

// Distribute rolls per-nationality counts into the taxonomy: region and
// subregion totals with per-country counts, plus the three-way resident
// partition. The partition always sums to the grand total; the Others
// bucket counts within non-Philippine residents.
func (c *NationalityClassifier) Distribute(counts []models.NationalityCount) models.NationalityDistribution {
	dist := models.NationalityDistribution{}

	foreign := make(map[string]int)
	for _, count := range counts {
		class := c.Classify(count.Nationality)
		dist.GrandTotal += count.Count

		switch {
		case class.IsPhilippineResident:
			dist.PhilippineResidents += count.Count
		case class.IsOverseasFilipino:
			dist.OverseasFilipinos += count.Count
		default:
			dist.NonPhilippineResidents += count.Count
			foreign[count.Nationality] += count.Count
		}
	}

	// Assemble regions in taxonomy order, consuming recognized countries.
	var regionOrder []string
	regionSubs := make(map[string][]models.SubRegionDistribution)
	for _, entry := range nationalityTaxonomy {
		sub := models.SubRegionDistribution{SubRegion: entry.SubRegion}
		for _, country := range entry.Countries {
			if n, ok := foreign[country]; ok {
				sub.Countries = append(sub.Countries, models.CountryCount{Country: country, Count: n})
				sub.Count += n
				delete(foreign, country)
			}
		}
		if _, ok := regionSubs[entry.Region]; !ok {
			regionOrder = append(regionOrder, entry.Region)
		}
		regionSubs[entry.Region] = append(regionSubs[entry.Region], sub)
	}

	// Whatever remains is unrecognized; keep the caller's row order.
	others := models.SubRegionDistribution{SubRegion: OthersBucket}
	for _, count := range counts {
		if n, ok := foreign[count.Nationality]; ok {
			others.Countries = append(others.Countries, models.CountryCount{Country: count.Nationality, Count: n})
			others.Count += n
			delete(foreign, count.Nationality)
		}
	}
	regionOrder = append(regionOrder, OthersBucket)
	regionSubs[OthersBucket] = []models.SubRegionDistribution{others}

	dist.Regions = make([]models.RegionDistribution, 0, len(regionOrder))
	for _, name := range regionOrder {
		region := models.RegionDistribution{Region: name, SubRegions: regionSubs[name]}
		for _, sub := range region.SubRegions {
			region.Count += sub.Count
		}
		dist.Regions = append(dist.Regions, region)
	}

	return dist
}
