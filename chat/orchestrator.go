package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index"
	"github.com/poiesic/medassist/storage"
)

const (
	// topK is how many documents are retrieved for each question.
	topK = 3

	systemPrompt = "You are a helpful medical assistant. " +
		"Answer questions based on the provided context and conversation history."

	userTurnFormat = "Context from medical database:\n%s\n\nQuestion: %s"
)

// Orchestrator answers questions over the indexed documents while
// keeping per-thread conversation history.
type Orchestrator struct {
	index    index.Index
	embedder ai.Embedder
	model    ai.ChatModel
	threads  storage.ThreadRepository
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a new answer orchestrator.
func NewOrchestrator(
	idx index.Index,
	provider ai.Provider,
	threads storage.ThreadRepository,
	opts ...Option,
) (*Orchestrator, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if threads == nil {
		return nil, ErrRepositoryRequired
	}

	o := &Orchestrator{
		index:    idx,
		embedder: provider.Embedder(),
		model:    provider.ChatModel(),
		threads:  threads,
		logger:   slog.Default().With("component", "chat"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Answer answers a question on a thread. The reply is always a string
// fit to show the user; internal failures are logged and reported as
// apologetic replies rather than errors.
func (o *Orchestrator) Answer(ctx context.Context, threadID, question string) string {
	return o.AnswerWithMonitor(ctx, threadID, question, nil)
}

// AnswerWithMonitor answers a question with monitoring. The monitor
// receives callbacks at each stage of the answer process.
func (o *Orchestrator) AnswerWithMonitor(ctx context.Context, threadID, question string, monitor Monitor) string {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(threadID, question)

	reply, err := o.answer(ctx, threadID, question, monitor)
	if err != nil {
		o.logger.Error("answer failed", "thread", threadID, "err", err)
		monitor.Fail(err)
		return userFacingError(err)
	}
	monitor.Finish(reply)
	return reply
}

func (o *Orchestrator) answer(ctx context.Context, threadID, question string, monitor Monitor) (string, error) {
	vector, err := o.embedder.EmbedText(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	matches, err := o.index.Query(ctx, vector, topK)
	if err != nil {
		return "", fmt.Errorf("querying index: %w", err)
	}
	monitor.AfterRetrieval(matches)

	// An empty index and a no-hit query are indistinguishable here;
	// both surface the same sentinel context to the model.
	docContext := index.FormatContext(matches)
	if docContext == "" {
		docContext = index.NoMatchesContext
	}

	history, err := o.threads.GetTurns(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("loading thread %s: %w", threadID, err)
	}

	userTurn := core.Turn{
		Role:      core.RoleUser,
		Content:   fmt.Sprintf(userTurnFormat, docContext, question),
		Timestamp: time.Now().UTC(),
	}

	// The system turn is recomposed on every call and never persisted.
	turns := make([]core.Turn, 0, len(history)+2)
	turns = append(turns, core.Turn{
		Role:      core.RoleSystem,
		Content:   systemPrompt,
		Timestamp: userTurn.Timestamp,
	})
	turns = append(turns, history...)
	turns = append(turns, userTurn)
	monitor.BeforeGeneration(turns)

	reply, err := o.model.Generate(ctx, turns)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	assistantTurn := core.Turn{
		Role:      core.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}
	if err := o.threads.AppendTurns(ctx, threadID, userTurn, assistantTurn); err != nil {
		return "", fmt.Errorf("persisting turns on thread %s: %w", threadID, err)
	}

	return reply, nil
}

// ClearHistory removes all turns of a thread.
func (o *Orchestrator) ClearHistory(ctx context.Context, threadID string) error {
	return o.threads.ClearThread(ctx, threadID)
}
