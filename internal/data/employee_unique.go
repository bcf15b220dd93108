package data

import (
	"encoding/json"
	"time"
)

type EmployeeUnique struct {
	FullName  string    `json:"full_name"`
	Sex       Sex       `json:"sex"`
	BirthDate time.Time `json:"birth_date"`
}

// EmployeesUnique wraps the result of a distinct listing so it can be
// cached as a single item
type EmployeesUnique struct {
	Employees []*EmployeeUnique `json:"employees"`
}

func (e *EmployeesUnique) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *EmployeesUnique) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

type EmployeesCount struct {
	Count int64 `json:"count"`
}

func (e *EmployeesCount) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *EmployeesCount) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
