package geo

// Sentinel values stand in for a place name that could not be determined.
// Each one names the reason.
const (
	Unknown     = "Unknown"      // lookup succeeded but the field was absent
	InvalidData = "Invalid Data" // the coordinate string was malformed
	NoData      = "No Data"      // the cell was missing or not a string
	Error       = "Error"        // every lookup attempt failed
)

// Output column names added by resolution
const (
	ColumnProvince = "Province"
	ColumnDistrict = "District"
	ColumnVillage  = "Village"
)

// Address holds the administrative fields returned by a reverse geocoder.
// Empty fields were not present in the response.
type Address struct {
	State   string `json:"state,omitempty"`
	County  string `json:"county,omitempty"`
	Town    string `json:"town,omitempty"`
	Village string `json:"village,omitempty"`
}

// Resolution is the per-row outcome of reverse geocoding
type Resolution struct {
	Province string `json:"province"`
	District string `json:"district"`
	Village  string `json:"village"`
}

// Sentinel builds a resolution with the same value in all three fields
func Sentinel(s string) Resolution {
	return Resolution{Province: s, District: s, Village: s}
}

// FromAddress maps address fields onto a resolution. A nil address means the
// lookup returned no place.
func FromAddress(a *Address) Resolution {
	if a == nil {
		return Sentinel(Unknown)
	}
	village := a.Town
	if village == "" {
		village = a.Village
	}
	return Resolution{
		Province: orUnknown(a.State),
		District: orUnknown(a.County),
		Village:  orUnknown(village),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
