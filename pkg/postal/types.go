// CLAUDE:SUMMARY Address component labels, LabelMap parse results, hierarchy paths and the fixed canonical label order.
package postal

// Address component labels used by the parser and the hierarchy builder.
const (
	LabelCountry       = "country"
	LabelCountryRegion = "country_region"
	LabelState         = "state"
	LabelStateDistrict = "state_district"
	LabelIsland        = "island"
	LabelCity          = "city"
	LabelCityDistrict  = "city_district"
	LabelSuburb        = "suburb"
	LabelRoad          = "road"
	LabelHouseNumber   = "house_number"
	LabelCategory      = "category"
	LabelHouse         = "house"
	LabelPostcode      = "postcode"
	LabelUnit          = "unit"
	LabelPOBox         = "po_box"
)

// HierarchyOrder is the canonical general-to-specific label order.
var HierarchyOrder = []string{
	LabelCountry,
	LabelCountryRegion,
	LabelState,
	LabelStateDistrict,
	LabelIsland,
	LabelCity,
	LabelCityDistrict,
	LabelSuburb,
	LabelRoad,
	LabelHouseNumber,
	LabelCategory,
	LabelHouse,
}

// postcodeLabels are the label spellings that carry a postal code.
var postcodeLabels = []string{LabelPostcode, "postal_code", "postalcode"}

// LabelMap maps a label to the ordered values found for it in one parse.
// A present key always holds at least one value.
type LabelMap map[string][]string

// Add appends value under label. Empty values are ignored.
func (m LabelMap) Add(label, value string) {
	if value == "" {
		return
	}
	m[label] = append(m[label], value)
}

// Clone returns a deep copy of m.
func (m LabelMap) Clone() LabelMap {
	if m == nil {
		return nil
	}
	out := make(LabelMap, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Equal reports whether m and o hold the same labels with the same value sequences.
func (m LabelMap) Equal(o LabelMap) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		w, ok := o[k]
		if !ok || len(v) != len(w) {
			return false
		}
		for i := range v {
			if v[i] != w[i] {
				return false
			}
		}
	}
	return true
}

// HierarchyPath is one general-to-specific reading of an address.
type HierarchyPath []string

// Hierarchy holds one path per parse alternative and per value combination.
type Hierarchy []HierarchyPath
