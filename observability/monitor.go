package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/poiesic/medassist/chat"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index"
)

// AnswerMonitor traces one answered question as a span. Create a fresh
// monitor per call; the span lives from Start to Finish or Fail.
type AnswerMonitor struct {
	tracer trace.Tracer
	ctx    context.Context
	span   trace.Span
}

var _ chat.Monitor = (*AnswerMonitor)(nil)

// NewAnswerMonitor creates a monitor that records spans on tracer.
func NewAnswerMonitor(ctx context.Context, tracer trace.Tracer) *AnswerMonitor {
	return &AnswerMonitor{tracer: tracer, ctx: ctx}
}

func (m *AnswerMonitor) Start(threadID, question string) {
	_, m.span = m.tracer.Start(m.ctx, "chat.answer",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("chat.thread_id", threadID),
			attribute.Int("chat.question_length", len(question)),
		),
	)
}

func (m *AnswerMonitor) AfterRetrieval(matches []index.Match) {
	if m.span == nil {
		return
	}
	m.span.SetAttributes(attribute.Int("retrieval.match_count", len(matches)))
	if len(matches) > 0 {
		m.span.SetAttributes(attribute.Float64("retrieval.top_score", float64(matches[0].Score)))
	}
}

func (m *AnswerMonitor) BeforeGeneration(turns []core.Turn) {
	if m.span == nil {
		return
	}
	m.span.SetAttributes(attribute.Int("generation.turn_count", len(turns)))
}

func (m *AnswerMonitor) Finish(reply string) {
	if m.span == nil {
		return
	}
	m.span.SetAttributes(attribute.Int("chat.reply_length", len(reply)))
	m.span.End()
	m.span = nil
}

func (m *AnswerMonitor) Fail(err error) {
	if m.span == nil {
		return
	}
	m.span.RecordError(err)
	m.span.SetStatus(codes.Error, err.Error())
	m.span.End()
	m.span = nil
}
