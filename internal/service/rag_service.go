package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragqa/internal/domain"
	"ragqa/internal/retrieval"
)

// RAGServiceImpl runs embed, vector query, extraction and chat completion in
// sequence. It holds no per-query state and is safe for concurrent use.
type RAGServiceImpl struct {
	embedder domain.Embedder
	store    domain.VectorSearcher
	chat     domain.ChatModel
	logger   *zap.Logger
}

func NewRAGService(embedder domain.Embedder, store domain.VectorSearcher, chat domain.ChatModel, logger *zap.Logger) *RAGServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGServiceImpl{embedder: embedder, store: store, chat: chat, logger: logger}
}

// Answer runs the pipeline for query. A blank query returns
// domain.ErrEmptyQuery without calling any service. Any failure aborts the
// remaining stages and is returned as a *domain.StageError. When only the chat
// stage fails, the returned Answer still carries the retrieved links.
func (s *RAGServiceImpl) Answer(ctx context.Context, query string) (*domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	r := &run{
		answer: &domain.Answer{QueryID: uuid.NewString(), Query: query},
		stage:  domain.StageIdle,
	}
	r.logger = s.logger.With(zap.String("query_id", r.answer.QueryID))

	r.advance(domain.StageEmbeddingRequested)
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, r.fail(err)
	}
	r.logger.Debug("query embedded", zap.Int("dimensions", len(vector)))

	r.advance(domain.StageVectorQueried)
	matches, err := s.store.Query(ctx, vector)
	if err != nil {
		return nil, r.fail(err)
	}

	r.advance(domain.StageContextExtracted)
	res := retrieval.Extract(matches)
	r.answer.Matches = res.Links
	if len(res.Links) == 0 {
		r.logger.Info("vector query returned no matches")
	}

	r.advance(domain.StageAnswerRequested)
	text, err := s.chat.Complete(ctx, res.Context, query)
	if err != nil {
		return r.answer, r.fail(err)
	}
	r.answer.Text = text

	r.advance(domain.StageDone)
	r.logger.Info("query answered", zap.Int("matches", len(r.answer.Matches)))
	return r.answer, nil
}

type run struct {
	answer *domain.Answer
	stage  domain.Stage
	logger *zap.Logger
}

func (r *run) advance(next domain.Stage) {
	r.logger.Debug("stage transition", zap.Stringer("from", r.stage), zap.Stringer("to", next))
	r.stage = next
}

func (r *run) fail(err error) error {
	failed := r.stage
	r.advance(domain.StageFailed)
	r.logger.Error("query failed", zap.Stringer("stage", failed), zap.Error(err))
	return &domain.StageError{Stage: failed, Err: err}
}
