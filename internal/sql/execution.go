package sql

import (
	"fmt"
	"strings"
	"time"

	"github.com/antonio-alexander/go-employees/internal/data"

	"github.com/pkg/errors"
)

// dialect captures the few places where postgres, mysql and sqlite
// can't share the same sql
type dialect string

func (d dialect) driverName() string {
	switch d {
	default:
		return string(d)
	case DriverPostgres:
		return "pgx"
	}
}

func (d dialect) placeholder(n int) string {
	if d == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// values returns the VALUES tuples for nRows employees, placeholders
// are numbered from 1
func (d dialect) values(nRows int) string {
	tuples := make([]string, 0, nRows)
	for i := 0; i < nRows; i++ {
		n := i*3 + 1
		tuples = append(tuples, fmt.Sprintf("(%s, %s, %s)",
			d.placeholder(n), d.placeholder(n+1), d.placeholder(n+2)))
	}
	return strings.Join(tuples, ", ")
}

func (d dialect) insertQuery(nRows int) string {
	query := fmt.Sprintf("INSERT INTO %s (full_name, birth_date, sex) VALUES %s",
		tableEmployees, d.values(nRows))
	if d.returning() {
		query += " RETURNING id"
	}
	return query
}

func (d dialect) returning() bool {
	return d == DriverPostgres
}

func (d dialect) schema() []string {
	switch d {
	default:
		return nil
	case DriverPostgres:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id SERIAL PRIMARY KEY,
				full_name VARCHAR(50) NOT NULL CHECK (full_name <> ''),
				birth_date DATE NOT NULL,
				sex VARCHAR(6) NOT NULL CHECK (sex IN ('Male', 'Female'))
			);`, tableEmployees),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (full_name);",
				indexEmployeesFullName, tableEmployees),
		}
	case DriverMysql:
		//KIM: the binary collation keeps prefix matching case sensitive
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INT NOT NULL AUTO_INCREMENT,
				full_name VARCHAR(50) COLLATE utf8mb4_bin NOT NULL,
				birth_date DATE NOT NULL,
				sex ENUM('Male', 'Female') NOT NULL,
				PRIMARY KEY (id),
				INDEX %s (full_name),
				CHECK (full_name <> '')
			) DEFAULT CHARSET=utf8mb4;`, tableEmployees, indexEmployeesFullName),
		}
	case DriverSqlite:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				full_name VARCHAR(50) NOT NULL CHECK (full_name <> '' AND length(full_name) <= 50),
				birth_date DATE NOT NULL,
				sex TEXT NOT NULL CHECK (sex IN ('Male', 'Female'))
			);`, tableEmployees),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (full_name);",
				indexEmployeesFullName, tableEmployees),
		}
	}
}

// prefixCriteria matches full_name against a prefix, case sensitive
// for every dialect: sqlite's LIKE ignores case so GLOB is used instead
func (d dialect) prefixCriteria(n int) string {
	if d == DriverSqlite {
		return "full_name GLOB " + d.placeholder(n)
	}
	return "full_name LIKE " + d.placeholder(n) + " ESCAPE '!'"
}

func (d dialect) prefixArg(prefix string) string {
	if d == DriverSqlite {
		return strings.NewReplacer("[", "[[]", "*", "[*]", "?", "[?]").
			Replace(prefix) + "*"
	}
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").
		Replace(prefix) + "%"
}

func (d dialect) dateArg(t time.Time) any {
	if d == DriverPostgres {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.Format(data.DateFormat)
}

func employeeCriteria(d dialect, search data.EmployeeSearch) (string, []any) {
	var args []any
	var criteria []string

	if search.Sex != "" {
		args = append(args, string(search.Sex))
		criteria = append(criteria, "sex = "+d.placeholder(len(args)))
	}
	if search.FullNamePrefix != "" {
		args = append(args, d.prefixArg(search.FullNamePrefix))
		criteria = append(criteria, d.prefixCriteria(len(args)))
	}
	if len(criteria) <= 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(criteria, " AND "), args
}

func employeeArgs(d dialect, employees ...*data.Employee) []any {
	args := make([]any, 0, len(employees)*3)
	for _, employee := range employees {
		args = append(args, employee.FullName,
			d.dateArg(employee.BirthDate), string(employee.Sex))
	}
	return args
}

// dateScan normalizes what the drivers return for a DATE column: a time
// for postgres (and mysql with parseTime) or text otherwise
func dateScan(value any) (time.Time, error) {
	parseFx := func(s string) (time.Time, error) {
		if len(s) < len(data.DateFormat) {
			return time.Time{}, errors.Errorf("invalid date: %q", s)
		}
		return time.Parse(data.DateFormat, s[:len(data.DateFormat)])
	}

	switch v := value.(type) {
	default:
		return time.Time{}, errors.Errorf("unsupported date type: %T", value)
	case time.Time:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		return parseFx(v)
	case []byte:
		return parseFx(string(v))
	}
}

func employeeScan(scanFx func(...any) error) (*data.Employee, error) {
	var birthDate any
	var sex string

	employee := new(data.Employee)
	if err := scanFx(
		&employee.Id,
		&employee.FullName,
		&birthDate,
		&sex,
	); err != nil {
		return nil, err
	}
	date, err := dateScan(birthDate)
	if err != nil {
		return nil, err
	}
	employee.BirthDate = date
	employee.Sex = data.Sex(sex)
	return employee, nil
}

func employeeUniqueScan(scanFx func(...any) error) (*data.EmployeeUnique, error) {
	var birthDate any
	var sex string

	employee := new(data.EmployeeUnique)
	if err := scanFx(
		&employee.FullName,
		&sex,
		&birthDate,
	); err != nil {
		return nil, err
	}
	date, err := dateScan(birthDate)
	if err != nil {
		return nil, err
	}
	employee.BirthDate = date
	employee.Sex = data.Sex(sex)
	return employee, nil
}
