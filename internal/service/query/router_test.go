package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/repository/memory"
	"github.com/jwalitptl/emr-assistant/internal/service/emr"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestRouter(t *testing.T, now string) (*Router, *memory.Store) {
	t.Helper()
	store := memory.NewSeededStore()
	svc := emr.NewService(store, nil, nil, logger.Nop())
	return NewRouter(svc, Options{
		UserID:   memory.DemoUserID,
		Location: time.UTC,
		Now:      fixedClock(now),
	}), store
}

func TestRouter_RuleOrder(t *testing.T) {
	r, _ := newTestRouter(t, "2025-09-01T10:00:00Z")

	assert.Equal(t, []string{
		IntentGenotype,
		IntentBloodPressure,
		IntentVitals,
		IntentAvailableDoctors,
		IntentBookPregnancyTest,
	}, r.Rules())
}

func TestRouter_Route(t *testing.T) {
	r, _ := newTestRouter(t, "2025-09-01T10:00:00Z")
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		intent  string
		answer  string
		context string
	}{
		{
			name:    "genotype",
			input:   "What is my genotype?",
			intent:  IntentGenotype,
			answer:  "Your genotype is: AA.",
			context: "Genotype: AA",
		},
		{
			name:    "genotype wins over blood pressure",
			input:   "blood pressure and genotype please",
			intent:  IntentGenotype,
			answer:  "Your genotype is: AA.",
			context: "Genotype: AA",
		},
		{
			name:    "blood pressure",
			input:   "  What's my Blood Pressure  ",
			intent:  IntentBloodPressure,
			answer:  "Your blood pressure is: 120/80 mmHg.",
			context: "Blood pressure: 120/80 mmHg",
		},
		{
			name:    "bp shorthand",
			input:   "my BP?",
			intent:  IntentBloodPressure,
			answer:  "Your blood pressure is: 120/80 mmHg.",
			context: "Blood pressure: 120/80 mmHg",
		},
		{
			name:    "vitals",
			input:   "Show my vitals",
			intent:  IntentVitals,
			answer:  "Here are your vitals:\n• Heart Rate: 72 bpm\n• Temperature: 36.8°C\n• Weight: 70kg",
			context: "Vitals -> Heart Rate: 72 bpm; Temperature: 36.8°C; Weight: 70kg",
		},
		{
			name:    "doctors today",
			input:   "Any available doctors?",
			intent:  IntentAvailableDoctors,
			answer:  "Doctors available today: Dr. Musa (General Physician)",
			context: "Doctor availability for 2025-09-01: Dr. Musa (General Physician)",
		},
		{
			name:    "doctors tomorrow",
			input:   "Any available doctors tomorrow?",
			intent:  IntentAvailableDoctors,
			answer:  "Doctors available tomorrow: Dr. Musa (General Physician), Dr. Aisha (Gynecologist)",
			context: "Doctor availability for 2025-09-02: Dr. Musa (General Physician), Dr. Aisha (Gynecologist)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Route(ctx, tt.input)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, tt.intent, res.Intent)
			assert.Equal(t, tt.answer, res.Answer)
			assert.Equal(t, tt.context, res.Context)
		})
	}
}

func TestRouter_NoMatch(t *testing.T) {
	r, _ := newTestRouter(t, "2025-09-01T10:00:00Z")

	for _, input := range []string{"", "I have a headache", "book a pregnancy test", "doctors available"} {
		res, err := r.Route(context.Background(), input)
		require.NoError(t, err)
		assert.Nil(t, res, input)
	}
}

func TestRouter_CaseInsensitive(t *testing.T) {
	r, _ := newTestRouter(t, "2025-09-01T10:00:00Z")
	ctx := context.Background()

	upper, err := r.Route(ctx, "GENOTYPE?")
	require.NoError(t, err)
	lower, err := r.Route(ctx, "genotype?")
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
}

func TestRouter_LookupsAreRepeatable(t *testing.T) {
	r, _ := newTestRouter(t, "2025-09-01T10:00:00Z")
	ctx := context.Background()

	for _, input := range []string{"genotype", "bp", "vitals", "available doctors tomorrow"} {
		first, err := r.Route(ctx, input)
		require.NoError(t, err)
		second, err := r.Route(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, first, second, input)
	}
}

func TestRouter_NoDoctorsAvailable(t *testing.T) {
	r, _ := newTestRouter(t, "2025-12-25T10:00:00Z")

	res, err := r.Route(context.Background(), "available doctors")
	require.NoError(t, err)
	assert.Equal(t, "Doctors available today: No doctors available.", res.Answer)
	assert.Equal(t, "Doctor availability for 2025-12-25: No doctors available.", res.Context)
}

func TestRouter_BookPregnancyTest(t *testing.T) {
	r, store := newTestRouter(t, "2025-09-01T10:00:00Z")
	ctx := context.Background()

	res, err := r.Route(ctx, "Book a pregnancy test for tomorrow")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, IntentBookPregnancyTest, res.Intent)
	assert.Equal(t, "Appointment booked with Dr. Aisha on 2025-09-02 for Pregnancy Test.", res.Answer)
	assert.Equal(t, "Booked: Pregnancy Test on 2025-09-02 with Dr. Aisha", res.Context)

	appts, err := store.ListAppointments(ctx, memory.DemoUserID)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, model.Appointment{
		ID:        appts[1].ID,
		UserID:    memory.DemoUserID,
		Date:      "2025-09-02",
		Type:      PregnancyTest,
		Doctor:    PregnancyDoctor,
		CreatedAt: appts[1].CreatedAt,
	}, appts[1])
}

func TestRouter_BookPregnancyTestUnavailable(t *testing.T) {
	r, store := newTestRouter(t, "2025-09-02T10:00:00Z")
	ctx := context.Background()

	res, err := r.Route(ctx, "book pregnancy test tomorrow")
	require.NoError(t, err)
	assert.Equal(t, emr.DoctorNotAvailable, res.Answer)

	appts, _ := store.ListAppointments(ctx, memory.DemoUserID)
	assert.Len(t, appts, 1)
}

func TestRouter_TomorrowUsesConfiguredTimezone(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)
	store := memory.NewSeededStore()
	r := NewRouter(emr.NewService(store, nil, nil, logger.Nop()), Options{
		UserID:   memory.DemoUserID,
		Location: lagos,
		// 23:30 UTC on the 31st is already the 1st in UTC+1.
		Now: fixedClock("2025-08-31T23:30:00Z"),
	})

	assert.Equal(t, "2025-09-01", r.Today())
	assert.Equal(t, "2025-09-02", r.Tomorrow())
}

func TestRouter_UnknownUserPlaceholders(t *testing.T) {
	store := memory.NewSeededStore()
	r := NewRouter(emr.NewService(store, nil, nil, logger.Nop()), Options{UserID: "404"})
	ctx := context.Background()

	res, err := r.Route(ctx, "genotype")
	require.NoError(t, err)
	assert.Equal(t, "Your genotype is: Genotype not available..", res.Answer)

	res, err = r.Route(ctx, "vitals")
	require.NoError(t, err)
	assert.Equal(t, emr.NoVitals, res.Answer)
	assert.Empty(t, res.Context)
}

type failingRecords struct{ Records }

func (failingRecords) GetUserGenotype(ctx context.Context, userID string) (string, error) {
	return "", errors.New("connection refused")
}

func TestRouter_PropagatesStoreErrors(t *testing.T) {
	r := NewRouter(failingRecords{}, Options{UserID: "1"})

	res, err := r.Route(context.Background(), "genotype")
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "connection refused")
}
