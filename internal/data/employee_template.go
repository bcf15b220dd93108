package data

// EmployeeTemplate holds the values that override what's randomly
// generated, a nil field is drawn at random
type EmployeeTemplate struct {
	Sex         *Sex    `json:"sex,omitempty"`
	FirstLetter *string `json:"first_letter,omitempty"`
}
