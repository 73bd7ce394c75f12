// Package query answers EMR questions directly from the record store when a
// message matches one of a fixed, ordered set of keyword rules.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/emr-assistant/internal/model"
)

// Records is the record-store surface the router reads from and books into.
type Records interface {
	GetUserVitals(ctx context.Context, userID string) (*model.Vitals, error)
	GetUserGenotype(ctx context.Context, userID string) (string, error)
	GetUserBloodPressure(ctx context.Context, userID string) (string, error)
	GetDoctorAvailability(ctx context.Context, date string) ([]*model.Doctor, error)
	BookAppointment(ctx context.Context, userID, date, procedureType, doctorName string) (string, error)
}

// Rule pairs a predicate over lowercased message text with the handler that
// answers it.
type Rule struct {
	Intent string
	Match  func(text string) bool
	Answer func(ctx context.Context, text string) (*model.RouterResult, error)
}

type Options struct {
	// UserID all lookups and bookings are made for.
	UserID string
	// Location used to turn the clock into calendar dates.
	Location *time.Location
	Now      func() time.Time
}

type Router struct {
	records  Records
	userID   string
	location *time.Location
	now      func() time.Time
	rules    []Rule
}

func NewRouter(records Records, opts Options) *Router {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Router{
		records:  records,
		userID:   opts.UserID,
		location: opts.Location,
		now:      opts.Now,
	}
	r.rules = r.defaultRules()
	return r
}

// Route returns the answer of the first matching rule. A nil result with a
// nil error means no rule matched and the caller should fall back to the LLM.
func (r *Router) Route(ctx context.Context, text string) (*model.RouterResult, error) {
	normalized := normalize(text)
	for _, rule := range r.rules {
		if !rule.Match(normalized) {
			continue
		}
		res, err := rule.Answer(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to answer %s query: %w", rule.Intent, err)
		}
		res.Intent = rule.Intent
		return res, nil
	}
	return nil, nil
}

// Rules returns the intents in evaluation order.
func (r *Router) Rules() []string {
	intents := make([]string, len(r.rules))
	for i, rule := range r.rules {
		intents[i] = rule.Intent
	}
	return intents
}

// Today returns the current calendar date in the router's timezone.
func (r *Router) Today() string {
	return r.dateOffset(0)
}

func (r *Router) Tomorrow() string {
	return r.dateOffset(1)
}

func (r *Router) dateOffset(days int) string {
	return r.now().In(r.location).AddDate(0, 0, days).Format(model.DateLayout)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func containsAll(text string, subs ...string) bool {
	for _, s := range subs {
		if !strings.Contains(text, s) {
			return false
		}
	}
	return true
}
