package data

type Timers struct {
	Totals   map[string]int64 `json:"totals,omitempty"`   //nanoseconds
	Averages map[string]int64 `json:"averages,omitempty"` //nanoseconds
}
