package model

import "encoding/json"

// NovelResult is a single entry of the novel API search payload.
type NovelResult struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
	Source string `json:"source"`
}

// SearchPayload mirrors the shape of the novel API search response.
// Real responses are passed through as raw JSON; this type is only used to
// build the fallback payload.
type SearchPayload struct {
	Status  string        `json:"status"`
	Count   int           `json:"count"`
	Results []NovelResult `json:"results"`
}

// SearchResult is what the search service hands to the HTTP layer.
type SearchResult struct {
	Payload  json.RawMessage
	Fallback bool
	Cached   bool
}
