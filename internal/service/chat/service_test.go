package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/emr-assistant/internal/knowledge"
	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/repository/memory"
	"github.com/jwalitptl/emr-assistant/internal/repository/session"
	"github.com/jwalitptl/emr-assistant/internal/service/advice"
	"github.com/jwalitptl/emr-assistant/internal/service/emr"
	"github.com/jwalitptl/emr-assistant/internal/service/query"
	apperrors "github.com/jwalitptl/emr-assistant/pkg/errors"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

type fakeLLM struct {
	prompts []string
	answer  string
	err     error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fixture struct {
	svc      *Service
	llm      *fakeLLM
	sessions *session.MemoryStore
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewSeededStore()
	records := emr.NewService(store, nil, nil, logger.Nop())
	router := query.NewRouter(records, query.Options{
		UserID: memory.DemoUserID,
		Now:    func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) },
	})
	f := &fixture{
		llm:      &fakeLLM{answer: "It looks fine."},
		sessions: session.NewMemoryStore(time.Hour),
		metrics:  metrics.New("test"),
	}
	f.svc = NewService(router, advice.NewRetriever(knowledge.Default()), f.llm, f.sessions, f.metrics, logger.Nop(), memory.DemoUserID)
	return f
}

func TestHandle_RoutedQuerySkipsLLM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply, err := f.svc.Handle(ctx, "s1", "What is my genotype?")
	require.NoError(t, err)
	assert.Equal(t, &model.ChatReply{
		Reply:   "Your genotype is: AA.",
		Source:  model.SourceEMR,
		Intent:  query.IntentGenotype,
		Context: "Genotype: AA",
	}, reply)
	assert.Empty(t, f.llm.prompts)

	stored, _ := f.sessions.GetContext(ctx, "s1")
	assert.Equal(t, "Genotype: AA", stored)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RoutedQueries.WithLabelValues(query.IntentGenotype)))
}

func TestHandle_FallsBackToLLMWithAdvice(t *testing.T) {
	f := newFixture(t)

	reply, err := f.svc.Handle(context.Background(), "s1", "I have a sore throat and fever")
	require.NoError(t, err)
	assert.Equal(t, "It looks fine.", reply.Reply)
	assert.Equal(t, model.SourceLLM, reply.Source)

	require.Len(t, f.llm.prompts, 1)
	prompt := f.llm.prompts[0]
	assert.Contains(t, prompt, `Patient Input: "I have a sore throat and fever"`)
	assert.Contains(t, prompt, "could indicate a viral infection such as the flu or strep throat")
	assert.NotContains(t, prompt, "Patient previously received this data")
}

func TestHandle_NormalFollowUpUsesLastContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Handle(ctx, "s1", "my blood pressure")
	require.NoError(t, err)

	_, err = f.svc.Handle(ctx, "s1", "Is that normal?")
	require.NoError(t, err)

	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "Patient previously received this data: Blood pressure: 120/80 mmHg")
	assert.Contains(t, f.llm.prompts[0], `"No specific advice found in local data."`)
}

func TestHandle_ContextOnlyForNormalQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Handle(ctx, "s1", "genotype")
	require.NoError(t, err)
	_, err = f.svc.Handle(ctx, "s1", "what should I eat?")
	require.NoError(t, err)

	require.Len(t, f.llm.prompts, 1)
	assert.NotContains(t, f.llm.prompts[0], "Patient previously received this data")
}

func TestHandle_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Handle(ctx, "a", "genotype")
	require.NoError(t, err)
	_, err = f.svc.Handle(ctx, "b", "is it normal?")
	require.NoError(t, err)

	assert.NotContains(t, f.llm.prompts[0], "Genotype: AA")
}

func TestHandle_EmptySessionUsesDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Handle(ctx, "", "genotype")
	require.NoError(t, err)

	stored, _ := f.sessions.GetContext(ctx, memory.DemoUserID)
	assert.Equal(t, "Genotype: AA", stored)
}

func TestHandle_LLMFailureReturnsApology(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("status 502")

	reply, err := f.svc.Handle(context.Background(), "s1", "I feel dizzy")
	require.NoError(t, err)
	assert.Equal(t, Apology, reply.Reply)
	assert.Equal(t, model.SourceError, reply.Source)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LLMRequests.WithLabelValues("error")))
}

func TestHandle_RejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Handle(context.Background(), "s1", "   ")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

type brokenRouter struct{}

func (brokenRouter) Route(ctx context.Context, text string) (*model.RouterResult, error) {
	return nil, errors.New("db down")
}

func TestHandle_RouterFailureReturnsApology(t *testing.T) {
	f := newFixture(t)
	f.svc.router = brokenRouter{}

	reply, err := f.svc.Handle(context.Background(), "s1", "genotype")
	require.NoError(t, err)
	assert.Equal(t, Apology, reply.Reply)
	assert.Empty(t, f.llm.prompts)
}

type failingSessions struct{}

func (failingSessions) GetContext(ctx context.Context, id string) (string, error) {
	return "", errors.New("redis down")
}

func (failingSessions) SetContext(ctx context.Context, id, v string) error {
	return errors.New("redis down")
}

func TestHandle_SessionFailuresAreNotFatal(t *testing.T) {
	f := newFixture(t)
	f.svc.sessions = failingSessions{}

	reply, err := f.svc.Handle(context.Background(), "s1", "genotype")
	require.NoError(t, err)
	assert.Equal(t, model.SourceEMR, reply.Source)

	reply, err = f.svc.Handle(context.Background(), "s1", "is it normal?")
	require.NoError(t, err)
	assert.Equal(t, model.SourceLLM, reply.Source)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Is this NORMAL?", "Rest.", "Genotype: AA")
	assert.Equal(t, `You are a professional medical assistant. Provide clear, concise, and non-alarming guidance.
Patient previously received this data: Genotype: AA

Patient Input: "Is this NORMAL?"
Relevant Medical Information (from local RAG): "Rest."

Instructions:
- If the question is "is it normal?", use the provided context if available.
- Give practical next steps, red flags to watch for, and when to seek in-person care.
- Keep it friendly and brief.`, p)

	assert.NotContains(t, BuildPrompt("hello", "Rest.", "Genotype: AA"), "Genotype: AA")
	assert.NotContains(t, BuildPrompt("normal?", "Rest.", ""), "Patient previously received")
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello! I'm Dr. AI. How can I assist you with your medical concerns today?", newFixture(t).svc.Greeting())
}
