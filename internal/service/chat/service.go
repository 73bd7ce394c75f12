package chat

import (
	"context"
	"strings"
	"time"

	"github.com/jwalitptl/emr-assistant/internal/llm"
	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/repository"
	"github.com/jwalitptl/emr-assistant/pkg/circuitbreaker"
	"github.com/jwalitptl/emr-assistant/pkg/errors"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

const (
	Greeting = "Hello! I'm Dr. AI. How can I assist you with your medical concerns today?"
	Apology  = "I'm sorry, I encountered an error processing your request. Please try again later."
)

// Router answers record questions directly; nil means no match.
type Router interface {
	Route(ctx context.Context, text string) (*model.RouterResult, error)
}

// Retriever looks up local advice for free text.
type Retriever interface {
	Lookup(text string) (string, bool)
}

type Service struct {
	router        Router
	retriever     Retriever
	llm           llm.Client
	sessions      repository.SessionRepository
	metrics       *metrics.Metrics
	logger        *logger.Logger
	defaultSessID string
}

func NewService(
	router Router,
	retriever Retriever,
	client llm.Client,
	sessions repository.SessionRepository,
	m *metrics.Metrics,
	l *logger.Logger,
	defaultSessionID string,
) *Service {
	return &Service{
		router:        router,
		retriever:     retriever,
		llm:           client,
		sessions:      sessions,
		metrics:       m,
		logger:        l.With("chat"),
		defaultSessID: defaultSessionID,
	}
}

func (s *Service) Greeting() string {
	return Greeting
}

// Handle answers one chat message. Failures talking to the record store or
// the LLM are logged and turned into the Apology reply; the only error
// returned is a BadRequest for an empty message.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (*model.ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.NewBadRequest("message is required", nil)
	}
	if sessionID == "" {
		sessionID = s.defaultSessID
	}

	res, err := s.router.Route(ctx, message)
	if err != nil {
		s.logger.Error(err, "record lookup failed", "session_id", sessionID)
		return s.reply(&model.ChatReply{Reply: Apology, Source: model.SourceError}), nil
	}
	if res != nil {
		if s.metrics != nil {
			s.metrics.RoutedQueries.WithLabelValues(res.Intent).Inc()
		}
		if res.Context != "" {
			s.saveContext(ctx, sessionID, res.Context)
		}
		return s.reply(&model.ChatReply{
			Reply:   res.Answer,
			Source:  model.SourceEMR,
			Intent:  res.Intent,
			Context: res.Context,
		}), nil
	}

	return s.reply(s.askLLM(ctx, sessionID, message)), nil
}

func (s *Service) askLLM(ctx context.Context, sessionID, message string) *model.ChatReply {
	advice, found := s.retriever.Lookup(message)
	if s.metrics != nil {
		result := "miss"
		if found {
			result = "hit"
		}
		s.metrics.AdviceLookups.WithLabelValues(result).Inc()
	}

	lastContext := s.loadContext(ctx, sessionID)
	prompt := BuildPrompt(message, advice, lastContext)

	start := time.Now()
	answer, err := s.llm.Complete(ctx, prompt)
	s.observeLLM(start, err)
	if err != nil {
		s.logger.Error(err, "llm completion failed", "session_id", sessionID)
		return &model.ChatReply{Reply: Apology, Source: model.SourceError}
	}

	return &model.ChatReply{Reply: answer, Source: model.SourceLLM}
}

func (s *Service) loadContext(ctx context.Context, sessionID string) string {
	v, err := s.sessions.GetContext(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load session context", "session_id", sessionID, "error", err.Error())
		return ""
	}
	return v
}

func (s *Service) saveContext(ctx context.Context, sessionID, value string) {
	if err := s.sessions.SetContext(ctx, sessionID, value); err != nil {
		s.logger.Warn("failed to save session context", "session_id", sessionID, "error", err.Error())
	}
}

func (s *Service) observeLLM(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.LLMLatency.Observe(time.Since(start).Seconds())
	outcome := "success"
	switch {
	case circuitbreaker.IsRejected(err):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	s.metrics.LLMRequests.WithLabelValues(outcome).Inc()
}

func (s *Service) reply(r *model.ChatReply) *model.ChatReply {
	if s.metrics != nil {
		s.metrics.ChatReplies.WithLabelValues(r.Source).Inc()
	}
	return r
}
