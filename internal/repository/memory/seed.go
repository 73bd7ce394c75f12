package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/emr-assistant/internal/model"
)

// DemoUserID is the id of the seeded demo patient.
const DemoUserID = "1"

func SeedUsers() []model.User {
	return []model.User{
		{
			ID:            DemoUserID,
			Name:          "John Doe",
			Genotype:      "AA",
			BloodPressure: "120/80 mmHg",
			Vitals: model.Vitals{
				HeartRate:   72,
				Temperature: "36.8°C",
				Weight:      "70kg",
			},
			Appointments: []model.Appointment{
				{
					ID:        uuid.MustParse("6f1c2c1e-7a43-4d8e-9a55-0d2b4b0f8a11"),
					UserID:    DemoUserID,
					Date:      "2025-09-02",
					Type:      "Checkup",
					Doctor:    "Dr. Musa",
					CreatedAt: time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC),
				},
			},
		},
	}
}

func SeedDoctors() []model.Doctor {
	return []model.Doctor{
		{Name: "Dr. Musa", Specialty: "General Physician", Available: []string{"2025-09-01", "2025-09-02"}},
		{Name: "Dr. Aisha", Specialty: "Gynecologist", Available: []string{"2025-09-02"}},
	}
}
