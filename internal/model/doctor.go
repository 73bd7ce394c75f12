package model

import (
	"fmt"
	"slices"
)

type Doctor struct {
	Name      string   `db:"name" json:"name"`
	Specialty string   `db:"specialty" json:"specialty"`
	Available []string `db:"-" json:"available"`
}

// AvailableOn reports whether date is one of the doctor's available dates.
func (d *Doctor) AvailableOn(date string) bool {
	return slices.Contains(d.Available, date)
}

func (d *Doctor) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Specialty)
}
