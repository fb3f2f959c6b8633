package domain

import "time"

// RetrievedDocument is a retrieval-time view of one stored chunk. It is
// constructed per query and never persisted.
type RetrievedDocument struct {
	ID           string
	Content      string
	Title        string
	URL          string
	Summary      string
	ChunkType    string
	PublishedAt  string
	Similarity   float64
	MatchedQuery string
}

// AnswerResult is the final response produced for one question. Constructed
// once, either from a successful generation or as a fixed fallback value.
type AnswerResult struct {
	Content        string
	SourceArticles []string
	Confidence     float64
	Timestamp      time.Time
}

// CollectionInfo reports vector-store introspection for health endpoints.
type CollectionInfo struct {
	Name          string
	DocumentCount int
	Status        string
	Backend       string
}
