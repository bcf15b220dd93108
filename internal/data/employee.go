package data

import (
	"encoding/json"
	"time"
)

const DateFormat string = "2006-01-02"

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// Sexes lists every value the store accepts for sex
var Sexes = []Sex{SexMale, SexFemale}

func (s Sex) String() string {
	return string(s)
}

func (s Sex) Valid() bool {
	switch s {
	default:
		return false
	case SexMale, SexFemale:
		return true
	}
}

type Employee struct {
	Id        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	BirthDate time.Time `json:"birth_date"`
	Sex       Sex       `json:"sex"` //only validated by the store
}

// NewEmployee creates an employee that hasn't been persisted, none of
// the fields are validated until the employee is written to the store
func NewEmployee(fullName string, birthDate time.Time, sex Sex) *Employee {
	return &Employee{
		FullName:  fullName,
		BirthDate: birthDate,
		Sex:       sex,
	}
}

// ParseBirthDate parses an ISO (YYYY-MM-DD) date
func ParseBirthDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// CalculateAge returns the age in whole years as of the given time. The year
// difference is decremented when (month, day) of asOf sorts before the
// (month, day) of the birth date; a birth date of February 29th follows the
// same comparison.
func (e *Employee) CalculateAge(asOf time.Time) int {
	age := asOf.Year() - e.BirthDate.Year()
	if asOf.Month() < e.BirthDate.Month() ||
		(asOf.Month() == e.BirthDate.Month() && asOf.Day() < e.BirthDate.Day()) {
		age--
	}
	return age
}

func (e *Employee) Age() int {
	return e.CalculateAge(time.Now())
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
