package models

// PlaceResult is one dealer candidate from the places lookup. Location is
// the "lat,lng" string the upstream geometry collapses to.
type PlaceResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Address  string `json:"address"`
}

// Attribution is a provider credit extracted from an html_attributions
// snippet.
type Attribution struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

// Places is the cached result of one lookup. A failed lookup and a lookup
// with zero hits are both represented by the zero value.
type Places struct {
	Results      []PlaceResult `json:"results"`
	Attributions []Attribution `json:"attributions,omitempty"`
}

// FindResult returns the cached entry with the given place id, or nil.
func (p *Places) FindResult(placeID string) *PlaceResult {
	for i := range p.Results {
		if p.Results[i].PlaceID == placeID {
			return &p.Results[i]
		}
	}
	return nil
}
