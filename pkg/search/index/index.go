package index

import (
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/pkg/errors"
)

type document struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Index is an in-memory full text index of search results, used to refine
// fetched results with a second query. Results are identified by their URL.
type Index struct {
	index   bleve.Index
	results map[string]search.Result
	mutex   sync.RWMutex
}

func New() (*Index, error) {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Store = false
	titleFieldMapping.Index = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	descriptionFieldMapping := bleve.NewTextFieldMapping()
	descriptionFieldMapping.Store = false
	descriptionFieldMapping.Index = true
	docMapping.AddFieldMappingsAt("description", descriptionFieldMapping)

	urlFieldMapping := bleve.NewKeywordFieldMapping()
	urlFieldMapping.Store = false
	urlFieldMapping.Index = true
	docMapping.AddFieldMappingsAt("url", urlFieldMapping)

	indexMapping.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Index{
		index:   index,
		results: make(map[string]search.Result),
	}, nil
}

// Add indexes the given results. A result already indexed under the same URL
// is replaced.
func (i *Index) Add(results ...search.Result) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	batch := i.index.NewBatch()

	for _, r := range results {
		doc := document{
			Title:       r.Title,
			Description: r.Description,
			URL:         r.URL,
		}

		if err := batch.Index(r.URL, doc); err != nil {
			return errors.WithStack(err)
		}

		i.results[r.URL] = r
	}

	if err := i.index.Batch(batch); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Search returns up to limit indexed results matching the query string,
// best matches first.
func (i *Index) Search(query string, limit int) ([]search.Result, error) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	if limit <= 0 {
		limit = len(i.results)
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewQueryStringQuery(query))
	searchRequest.Size = limit

	searchResults, err := i.index.Search(searchRequest)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	results := make([]search.Result, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		if r, exists := i.results[hit.ID]; exists {
			results = append(results, r)
		}
	}

	return results, nil
}

func (i *Index) Len() int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return len(i.results)
}

func (i *Index) Close() error {
	if err := i.index.Close(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Refine returns the results matching the query, best matches first.
func Refine(results []search.Result, query string) ([]search.Result, error) {
	index, err := New()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer index.Close()

	if err := index.Add(results...); err != nil {
		return nil, errors.WithStack(err)
	}

	refined, err := index.Search(query, len(results))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return refined, nil
}
