package model

// Vitals are the latest recorded vital signs for a user.
type Vitals struct {
	HeartRate   int    `db:"heart_rate" json:"heart_rate"`
	Temperature string `db:"temperature" json:"temperature"`
	Weight      string `db:"weight" json:"weight"`
}

// User is a patient record in the EMR store.
type User struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Genotype      string        `db:"genotype" json:"genotype"`
	BloodPressure string        `db:"blood_pressure" json:"blood_pressure"`
	Vitals        Vitals        `db:"-" json:"vitals"`
	Appointments  []Appointment `db:"-" json:"appointments"`
}
