// Package payload builds the request bodies sent to the embedding,
// vector-search and chat-completion services. All builders are pure.
package payload

import (
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel produces 1536-dimensional vectors.
	DefaultEmbeddingModel = string(openai.AdaEmbeddingV2)
	DefaultChatModel      = openai.GPT3Dot5Turbo
	// TopK is the number of neighbours requested per query.
	TopK = 5
	// DefaultSystemPrompt sets the assistant persona and its fallback when
	// the context does not cover the question.
	DefaultSystemPrompt = "You are a helpful machine learning assistant and tutor. " +
		"Answer questions based on the context provided, or say I don't know."
)

// VectorQueryRequest is the Pinecone query body.
type VectorQueryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeValues   bool      `json:"includeValues"`
	IncludeMetadata bool      `json:"include_metadata"`
}

// QdrantSearchRequest is the Qdrant points/search body.
type QdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	WithVector  bool      `json:"with_vector"`
}

// Embedding requests an embedding of query. Any string is accepted.
func Embedding(model, query string) openai.EmbeddingRequest {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return openai.EmbeddingRequest{
		Input: query,
		Model: openai.EmbeddingModel(model),
	}
}

// VectorQuery asks for the TopK nearest neighbours of vector with their
// metadata. Stored vectors are not returned.
func VectorQuery(vector []float32) VectorQueryRequest {
	return VectorQueryRequest{
		Vector:          vector,
		TopK:            TopK,
		IncludeValues:   false,
		IncludeMetadata: true,
	}
}

// QdrantSearch is the Qdrant equivalent of VectorQuery.
func QdrantSearch(vector []float32, limit int) QdrantSearchRequest {
	if limit <= 0 {
		limit = TopK
	}
	return QdrantSearchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
		WithVector:  false,
	}
}

// Chat builds a two-message completion request: the system instruction, then
// the retrieved context followed by a blank line and the query as a question.
func Chat(model, system, context, query string) openai.ChatCompletionRequest {
	if model == "" {
		model = DefaultChatModel
	}
	if system == "" {
		system = DefaultSystemPrompt
	}
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: UserMessage(context, query)},
		},
	}
}

// UserMessage joins context and query. An empty context leaves the query
// preceded by a blank line.
func UserMessage(context, query string) string {
	return context + "\n\n" + query + "?"
}
