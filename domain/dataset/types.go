package dataset

import "time"

// Source identifies a remote survey form that can be loaded into a session
type Source struct {
	Name        string `json:"name"`
	AssetUID    string `json:"asset_uid"`
	Description string `json:"description,omitempty"`
}

// Query parameterizes a load from a survey source
type Query struct {
	AssetUID       string
	SubmittedAfter time.Time // zero means no lower bound
}

// Regions names the two-level administrative grouping columns
type Regions struct {
	Province string `json:"province"`
	District string `json:"district"`
}

// DefaultRegions returns the region columns of the household survey forms
func DefaultRegions() Regions {
	return Regions{
		Province: "gen_info/province",
		District: "gen_info/district",
	}
}

// Columns returns the region columns in grouping order
func (r Regions) Columns() []string {
	return []string{r.Province, r.District}
}
