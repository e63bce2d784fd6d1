package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"governai/internal/index"
	"governai/internal/middleware"
)

const (
	DefaultTopK = 5

	NoRelevantArticlesMessage = "No relevant news articles found to answer this question."
	ApologyMessage            = "Sorry, I couldn't generate an answer right now. Please try again later."
)

type Outcome string

const (
	OutcomeAnswered  Outcome = "answered"
	OutcomeNoContext Outcome = "no_context"
	OutcomeFailed    Outcome = "failed"
)

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]index.ScoredChunk, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Scoped is implemented by retrievers bound to one session window.
type Scoped interface {
	Scope() (sessionID string, days int)
}

type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]int, error)
}

// Answer is the outcome of one question. Text is always user-presentable,
// including on failure.
type Answer struct {
	Question string              `json:"question"`
	Text     string              `json:"answer"`
	Outcome  Outcome             `json:"outcome"`
	Sources  []index.ScoredChunk `json:"sources"`
}

type Responder struct {
	generator Generator
	reranker  Reranker
	log       *QueryLog
	topK      int
}

// NewResponder builds a responder. reranker and log may be nil.
func NewResponder(g Generator, r Reranker, log *QueryLog) *Responder {
	return &Responder{generator: g, reranker: r, log: log, topK: DefaultTopK}
}

// Answer retrieves the most relevant chunks and asks the model to answer from
// them. It never returns an error: an empty context short-circuits to
// NoRelevantArticlesMessage and any failure maps to ApologyMessage.
func (s *Responder) Answer(ctx context.Context, question string, retriever Retriever) Answer {
	start := time.Now()
	ans := s.answer(ctx, question, retriever)

	if s.log != nil {
		entry := QueryLogEntry{
			Question:      question,
			Chunks:        len(ans.Sources),
			Sources:       distinctSources(ans.Sources),
			Outcome:       ans.Outcome,
			LatencyMs:     time.Since(start).Milliseconds(),
			CorrelationID: middleware.GetCorrelationID(ctx),
		}
		if sc, ok := retriever.(Scoped); ok {
			entry.SessionID, entry.WindowDays = sc.Scope()
		}
		s.log.Record(ctx, entry)
	}
	return ans
}

func (s *Responder) answer(ctx context.Context, question string, retriever Retriever) Answer {
	ans := Answer{Question: question}
	if retriever == nil {
		ans.Text, ans.Outcome = NoRelevantArticlesMessage, OutcomeNoContext
		return ans
	}

	chunks, err := s.retrieve(ctx, question, retriever)
	if err != nil {
		slog.ErrorContext(ctx, "retrieval failed", "error", err)
		ans.Text, ans.Outcome = ApologyMessage, OutcomeFailed
		return ans
	}
	if len(chunks) == 0 {
		ans.Text, ans.Outcome = NoRelevantArticlesMessage, OutcomeNoContext
		return ans
	}
	ans.Sources = chunks

	text, err := s.generator.Generate(ctx, answerPrompt(question, chunks))
	if err != nil {
		slog.ErrorContext(ctx, "answer generation failed", "error", err, "chunks", len(chunks))
		ans.Text, ans.Outcome = ApologyMessage, OutcomeFailed
		return ans
	}
	ans.Text, ans.Outcome = text, OutcomeAnswered
	return ans
}

func (s *Responder) retrieve(ctx context.Context, question string, retriever Retriever) ([]index.ScoredChunk, error) {
	if s.reranker == nil {
		return retriever.Retrieve(ctx, question, s.topK)
	}

	candidates, err := retriever.Retrieve(ctx, question, s.topK*2)
	if err != nil || len(candidates) == 0 {
		return candidates, err
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}
	order, err := s.reranker.Rerank(ctx, question, docs)
	if err != nil {
		slog.WarnContext(ctx, "rerank failed, keeping similarity order", "error", err)
		return candidates[:min(s.topK, len(candidates))], nil
	}

	reranked := make([]index.ScoredChunk, 0, s.topK)
	for _, idx := range order {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		reranked = append(reranked, candidates[idx])
		if len(reranked) == s.topK {
			break
		}
	}
	return reranked, nil
}

func answerPrompt(question string, chunks []index.ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return fmt.Sprintf("Use the context below to answer the user's question about AI ethics or policy. "+
		"Be brief and focused. If uncertain, say so clearly rather than guessing.\n\n"+
		"Context:\n%s\n\nQuestion: %s\nAnswer:", strings.Join(texts, "\n\n"), question)
}
