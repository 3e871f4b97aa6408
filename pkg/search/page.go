package search

// Page is the outcome of a single round trip.
type Page struct {
	Results []Result `json:"results" yaml:"results"`
	// URL is either the continuation URL of the next page (empty on the last
	// page) or the URL of the request that produced this page, depending on
	// the pagination strategy.
	URL string `json:"url" yaml:"url"`
}

type Pages []Page

// Flatten aggregates the pages results, preserving pages order and in-page
// order.
func (p Pages) Flatten() []Result {
	total := 0
	for _, page := range p {
		total += len(page.Results)
	}

	results := make([]Result, 0, total)
	for _, page := range p {
		results = append(results, page.Results...)
	}

	return results
}

func (p Pages) Len() int {
	total := 0
	for _, page := range p {
		total += len(page.Results)
	}
	return total
}
