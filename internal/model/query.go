package model

// QueryType identifies the shape of a planned search query.
type QueryType string

const (
	QueryNameOnly         QueryType = "name_only"
	QueryNameCompany      QueryType = "name_company"
	QueryNameLocation     QueryType = "name_location"
	QueryCompanyOnly      QueryType = "company_only"
	QueryCompanyLocation  QueryType = "company_location"
	QuerySlugBased        QueryType = "slug_based"
	QueryHandleBased      QueryType = "handle_based"
	QueryURLReverse       QueryType = "url_reverse"
	QueryCompanyAmplified QueryType = "company_amplified"
)

// Query is a single rendered search query. Variant is a stable canonical
// tag (e.g. "handle:clean", "name+company") used for deduplication and
// aggregate metrics.
type Query struct {
	Text    string    `json:"text"`
	Type    QueryType `json:"type"`
	Variant string    `json:"variant"`
}
