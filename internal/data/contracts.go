package data

const (
	RouteSchema          string = "/schema"
	RouteEmployees       string = "/employees"
	RouteEmployeesUnique string = RouteEmployees + "/unique"
	RouteEmployeesSearch string = RouteEmployees + "/search"
	RouteEmployeesCount  string = RouteEmployees + "/count"
	RouteEmployeesSeed   string = RouteEmployees + "/seed"
	RouteCache           string = "/cache"
	RouteCacheCounters   string = RouteCache + "/counters"
	RouteTimers          string = "/timers"
)

const (
	ParameterSex            string = "sex"
	ParameterFullNamePrefix string = "full_name_prefix"
	ParameterLimit          string = "limit"
)

type Request struct {
	Employee         *Employee         `json:"employee,omitempty"`
	Quantity         int               `json:"quantity,omitempty"`
	EmployeeTemplate *EmployeeTemplate `json:"employee_template,omitempty"`
}

type Response struct {
	Employee        *Employee         `json:"employee,omitempty"`
	Employees       []*Employee       `json:"employees,omitempty"`
	EmployeesUnique []*EmployeeUnique `json:"employees_unique,omitempty"`
	Count           int64             `json:"count"`
}
