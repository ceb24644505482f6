package postal

// CanonicalView is a fixed twelve-field projection of a LabelMap.
type CanonicalView struct {
	Country       []string `json:"country"`
	CountryRegion []string `json:"country_region"`
	State         []string `json:"state"`
	StateDistrict []string `json:"state_district"`
	Island        []string `json:"island"`
	City          []string `json:"city"`
	CityDistrict  []string `json:"city_district"`
	Suburb        []string `json:"suburb"`
	Road          []string `json:"road"`
	HouseNumber   []string `json:"house_number"`
	Category      []string `json:"category"`
	House         []string `json:"house"`
}

// NewCanonicalView copies the twelve canonical labels out of m. Missing
// labels become empty slices; labels outside the set are dropped.
func NewCanonicalView(m LabelMap) CanonicalView {
	get := func(label string) []string {
		return append([]string{}, m[label]...)
	}
	return CanonicalView{
		Country:       get(LabelCountry),
		CountryRegion: get(LabelCountryRegion),
		State:         get(LabelState),
		StateDistrict: get(LabelStateDistrict),
		Island:        get(LabelIsland),
		City:          get(LabelCity),
		CityDistrict:  get(LabelCityDistrict),
		Suburb:        get(LabelSuburb),
		Road:          get(LabelRoad),
		HouseNumber:   get(LabelHouseNumber),
		Category:      get(LabelCategory),
		House:         get(LabelHouse),
	}
}
