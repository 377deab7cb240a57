package domain

import "context"

// MatchMetadata is the metadata stored alongside each indexed vector.
type MatchMetadata struct {
	Link  string
	Title string
	Text  string
}

// Match is one item returned by a nearest-neighbour query, in service order.
type Match struct {
	ID       string
	Score    float64
	Metadata MatchMetadata
}

// ScoredLink is a ranked, renderable reference to a retrieved document.
type ScoredLink struct {
	Score float64
	// Link is anchor markup that opens URL in a new browsing context.
	Link  string
	Title string
	URL   string
}

// Retrieval is what a vector query contributes to an answer: the ranked links
// and the passage texts concatenated as model context.
type Retrieval struct {
	Links   []ScoredLink
	Context string
}

// Answer is the result of one question-answering run.
type Answer struct {
	QueryID string
	Query   string
	Text    string
	Matches []ScoredLink
}

// NoResults reports whether the vector query returned nothing to link to.
func (a *Answer) NoResults() bool { return len(a.Matches) == 0 }

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs nearest-neighbour queries against a remote index.
type VectorSearcher interface {
	Name() string
	Query(ctx context.Context, vector []float32) ([]Match, error)
}

// ChatModel produces an answer for a query grounded in the given context.
type ChatModel interface {
	Name() string
	Complete(ctx context.Context, retrieved, query string) (string, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	Answer(ctx context.Context, query string) (*Answer, error)
}
