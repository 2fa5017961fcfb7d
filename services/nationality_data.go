package services

// taxonomyEntry is one subregion's ordered list of recognized country
// names. Adding a country or region is a data change here, not a code
// change in the classifier.
type taxonomyEntry struct {
	Region    string
	SubRegion string
	Countries []string
}

// Special nationality values tracked outside the regional taxonomy.
const (
	nationalityPhilippines      = "Philippines"
	nationalityOverseasFilipino = "Overseas Filipino"
	nationalityOverseasPlural   = "Overseas Filipinos"

	// OthersBucket collects every nationality the taxonomy does not
	// recognize. Counted within non-Philippine residents.
	OthersBucket = "Others and Unspecified Residences"
)

// nationalityTaxonomy is the fixed two-level geopolitical taxonomy used in
// arrival reports. Matching is exact and case-sensitive.
var nationalityTaxonomy = []taxonomyEntry{
	{
		Region:    "Asia",
		SubRegion: "ASEAN",
		Countries: []string{
			"Brunei", "Cambodia", "Indonesia", "Laos", "Malaysia",
			"Myanmar", "Singapore", "Thailand", "Vietnam",
		},
	},
	{
		Region:    "Asia",
		SubRegion: "East Asia",
		Countries: []string{
			"China", "Hong Kong", "Japan", "South Korea", "Taiwan",
		},
	},
	{
		Region:    "Asia",
		SubRegion: "South Asia",
		Countries: []string{
			"Bangladesh", "India", "Iran", "Nepal", "Pakistan", "Sri Lanka",
		},
	},
	{
		Region:    "Middle East",
		SubRegion: "Middle East",
		Countries: []string{
			"Bahrain", "Egypt", "Israel", "Jordan", "Kuwait",
			"Qatar", "Saudi Arabia", "United Arab Emirates",
		},
	},
	{
		Region:    "Americas",
		SubRegion: "North America",
		Countries: []string{
			"Canada", "Mexico", "USA",
		},
	},
	{
		Region:    "Americas",
		SubRegion: "South America",
		Countries: []string{
			"Argentina", "Brazil", "Colombia", "Peru", "Venezuela",
		},
	},
	{
		Region:    "Europe",
		SubRegion: "Western Europe",
		Countries: []string{
			"Austria", "Belgium", "France", "Germany", "Luxembourg",
			"Netherlands", "Switzerland",
		},
	},
	{
		Region:    "Europe",
		SubRegion: "Northern Europe",
		Countries: []string{
			"Denmark", "Finland", "Ireland", "Norway", "Sweden",
			"United Kingdom",
		},
	},
	{
		Region:    "Europe",
		SubRegion: "Southern Europe",
		Countries: []string{
			"Greece", "Italy", "Portugal", "Spain",
		},
	},
	{
		Region:    "Europe",
		SubRegion: "Eastern Europe",
		Countries: []string{
			"Czech Republic", "Hungary", "Poland", "Russia",
		},
	},
	{
		Region:    "Australasia/Pacific",
		SubRegion: "Australasia/Pacific",
		Countries: []string{
			"Australia", "Guam", "Nauru", "New Zealand", "Papua New Guinea",
		},
	},
	{
		Region:    "Africa",
		SubRegion: "Africa",
		Countries: []string{
			"Ghana", "Kenya", "Nigeria", "South Africa",
		},
	},
}
