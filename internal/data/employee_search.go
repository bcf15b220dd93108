package data

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type EmployeeSearch struct {
	Sex            Sex    `json:"sex,omitempty"`
	FullNamePrefix string `json:"full_name_prefix,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

func (e *EmployeeSearch) ToKey() string {
	return fmt.Sprintf("sex=%s;full_name_prefix=%s;limit=%d",
		e.Sex, e.FullNamePrefix, e.Limit)
}

func (e *EmployeeSearch) ToParams() url.Values {
	params := make(url.Values)
	if e.Sex != "" {
		params.Set(ParameterSex, string(e.Sex))
	}
	if e.FullNamePrefix != "" {
		params.Set(ParameterFullNamePrefix, e.FullNamePrefix)
	}
	if e.Limit > 0 {
		params.Set(ParameterLimit, strconv.Itoa(e.Limit))
	}
	return params
}

func (e *EmployeeSearch) FromParams(params url.Values) {
	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		switch strings.ToLower(key) {
		case ParameterSex:
			e.Sex = Sex(values[0])
		case ParameterFullNamePrefix:
			e.FullNamePrefix = values[0]
		case ParameterLimit:
			e.Limit, _ = strconv.Atoi(values[0])
		}
	}
}
