package earthdata

import "time"

// Collection identifiers for the MERRA-2 single-level diagnostics product
// that carries the 2-metre air temperature variable.
const (
	collectionShortName = "M2T1NXSLV"
	collectionVersion   = "5.12.4"
	temperatureVariable = "M2T1NXSLV_5_12_4_T2M"
)

// tokenResponse is the URS token endpoint payload.
type tokenResponse struct {
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	ExpirationDate string `json:"expiration_date"`
}

// Granule is one archive file matched by a metadata search.
type Granule struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
	Size      string    `json:"granule_size"`
	URL       string    `json:"url"`
}

// granuleFeed mirrors the CMR JSON search response.
type granuleFeed struct {
	Feed struct {
		Entry []granuleEntry `json:"entry"`
	} `json:"feed"`
}

type granuleEntry struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	TimeStart   string        `json:"time_start"`
	TimeEnd     string        `json:"time_end"`
	GranuleSize string        `json:"granule_size"`
	Links       []granuleLink `json:"links"`
}

type granuleLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// dataLinkRel marks the link that points at the downloadable data file.
const dataLinkRel = "http://esipfed.org/ns/fedsearch/1.1/data#"

func (e granuleEntry) toGranule() Granule {
	g := Granule{
		ID:    e.ID,
		Title: e.Title,
		Size:  e.GranuleSize,
	}
	if t, err := time.Parse(time.RFC3339, e.TimeStart); err == nil {
		g.TimeStart = t
	}
	if t, err := time.Parse(time.RFC3339, e.TimeEnd); err == nil {
		g.TimeEnd = t
	}
	for _, link := range e.Links {
		if link.Rel == dataLinkRel {
			g.URL = link.Href
			break
		}
	}
	return g
}
