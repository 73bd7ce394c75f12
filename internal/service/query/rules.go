package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/service/emr"
)

const (
	IntentGenotype          = "genotype"
	IntentBloodPressure     = "blood_pressure"
	IntentVitals            = "vitals"
	IntentAvailableDoctors  = "available_doctors"
	IntentBookPregnancyTest = "book_pregnancy_test"

	PregnancyTest   = "Pregnancy Test"
	PregnancyDoctor = "Dr. Aisha"

	noDoctors = "No doctors available."
)

// defaultRules is evaluated top to bottom; the order is part of the contract.
func (r *Router) defaultRules() []Rule {
	return []Rule{
		{
			Intent: IntentGenotype,
			Match:  func(t string) bool { return strings.Contains(t, "genotype") },
			Answer: r.answerGenotype,
		},
		{
			Intent: IntentBloodPressure,
			Match:  func(t string) bool { return containsAny(t, "blood pressure", "bp") },
			Answer: r.answerBloodPressure,
		},
		{
			Intent: IntentVitals,
			Match:  func(t string) bool { return strings.Contains(t, "vitals") },
			Answer: r.answerVitals,
		},
		{
			Intent: IntentAvailableDoctors,
			Match:  func(t string) bool { return strings.Contains(t, "available doctors") },
			Answer: r.answerAvailableDoctors,
		},
		{
			Intent: IntentBookPregnancyTest,
			Match:  func(t string) bool { return containsAll(t, "book", "pregnancy test", "tomorrow") },
			Answer: r.answerBookPregnancyTest,
		},
	}
}

func (r *Router) answerGenotype(ctx context.Context, _ string) (*model.RouterResult, error) {
	v, err := r.records.GetUserGenotype(ctx, r.userID)
	if err != nil {
		return nil, err
	}
	return &model.RouterResult{
		Answer:  fmt.Sprintf("Your genotype is: %s.", v),
		Context: fmt.Sprintf("Genotype: %s", v),
	}, nil
}

func (r *Router) answerBloodPressure(ctx context.Context, _ string) (*model.RouterResult, error) {
	v, err := r.records.GetUserBloodPressure(ctx, r.userID)
	if err != nil {
		return nil, err
	}
	return &model.RouterResult{
		Answer:  fmt.Sprintf("Your blood pressure is: %s.", v),
		Context: fmt.Sprintf("Blood pressure: %s", v),
	}, nil
}

func (r *Router) answerVitals(ctx context.Context, _ string) (*model.RouterResult, error) {
	v, err := r.records.GetUserVitals(ctx, r.userID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return &model.RouterResult{Answer: emr.NoVitals}, nil
	}
	return &model.RouterResult{
		Answer: fmt.Sprintf("Here are your vitals:\n• Heart Rate: %d bpm\n• Temperature: %s\n• Weight: %s",
			v.HeartRate, v.Temperature, v.Weight),
		Context: fmt.Sprintf("Vitals -> Heart Rate: %d bpm; Temperature: %s; Weight: %s",
			v.HeartRate, v.Temperature, v.Weight),
	}, nil
}

func (r *Router) answerAvailableDoctors(ctx context.Context, text string) (*model.RouterResult, error) {
	day, date := "today", r.Today()
	if strings.Contains(text, "tomorrow") {
		day, date = "tomorrow", r.Tomorrow()
	}

	docs, err := r.records.GetDoctorAvailability(ctx, date)
	if err != nil {
		return nil, err
	}
	list := formatDoctors(docs)

	return &model.RouterResult{
		Answer:  fmt.Sprintf("Doctors available %s: %s", day, list),
		Context: fmt.Sprintf("Doctor availability for %s: %s", date, list),
	}, nil
}

func (r *Router) answerBookPregnancyTest(ctx context.Context, _ string) (*model.RouterResult, error) {
	date := r.Tomorrow()
	msg, err := r.records.BookAppointment(ctx, r.userID, date, PregnancyTest, PregnancyDoctor)
	if err != nil {
		return nil, err
	}
	return &model.RouterResult{
		Answer:  msg,
		Context: fmt.Sprintf("Booked: %s on %s with %s", PregnancyTest, date, PregnancyDoctor),
	}, nil
}

func formatDoctors(docs []*model.Doctor) string {
	if len(docs) == 0 {
		return noDoctors
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}
