package sql_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/generator"
	"github.com/antonio-alexander/go-employees/internal/sql"

	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		"DATABASE_HOST":            "localhost",
		"DATABASE_USER":            "admin",
		"DATABASE_PASSWORD":        "admin",
		"DATABASE_NAME":            "test_db",
		"DATABASE_QUERY_TIMEOUT":   "10",
		"DATABASE_PARSE_TIME":      "true",
		"DATABASE_BULK_BATCH_SIZE": "10",
	}
	driverEnvs = map[string]map[string]string{
		"sqlite": {
			"DATABASE_DRIVER": "sqlite",
			"DATABASE_NAME":   ":memory:",
		},
		"postgres": {
			"DATABASE_DRIVER": "postgres",
			"DATABASE_PORT":   "5432",
		},
		"mysql": {
			"DATABASE_DRIVER": "mysql",
			"DATABASE_PORT":   "3306",
		},
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type sqlTest struct {
	sql interface {
		internal.Opener
		internal.Configurer
	}
	sql.Sql
}

func newSqlTest() *sqlTest {
	sql := sql.NewSql()
	return &sqlTest{
		sql: sql,
		Sql: sql,
	}
}

func birthDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *sqlTest) countPrefix(t *testing.T, prefix string) int64 {
	count, err := s.EmployeesCount(context.TODO(), data.EmployeeSearch{FullNamePrefix: prefix})
	assert.Nil(t, err)
	return count
}

func (s *sqlTest) TestEmployee(t *testing.T) {
	ctx := context.TODO()

	// create employee
	token := internal.GenerateId()[:8]
	employee := data.NewEmployee("E"+token+" Ivan Ivanovich",
		birthDate(2000, time.May, 15), data.SexMale)
	employeeCreated, err := s.EmployeeCreate(ctx, employee)
	assert.Nil(t, err)
	assert.NotNil(t, employeeCreated)
	assert.Greater(t, employee.Id, int64(0))
	assert.Equal(t, employee, employeeCreated)

	// read employee
	employeeRead, err := s.EmployeeRead(ctx, employee.Id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)
	assert.Equal(t, 24, employeeRead.CalculateAge(birthDate(2024, time.May, 15)))

	// create second employee, ids are unique
	employeeSecond, err := s.EmployeeCreate(ctx, data.NewEmployee("E"+token+" Anna Ivanovna",
		birthDate(1990, time.January, 2), data.SexFemale))
	assert.Nil(t, err)
	assert.NotEqual(t, employee.Id, employeeSecond.Id)

	// read missing employee
	employeeRead, err = s.EmployeeRead(ctx, -1)
	assert.ErrorIs(t, err, sql.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)
}

func (s *sqlTest) TestEmployeeConstraints(t *testing.T) {
	ctx := context.TODO()
	token := internal.GenerateId()[:8]

	// sex outside of the enumeration
	_, err := s.EmployeeCreate(ctx, data.NewEmployee("C"+token+" Sex Invalid",
		birthDate(1980, time.March, 3), data.Sex("Other")))
	assert.NotNil(t, err)

	// empty full name
	_, err = s.EmployeeCreate(ctx, data.NewEmployee("",
		birthDate(1980, time.March, 3), data.SexMale))
	assert.NotNil(t, err)

	// full name too long
	_, err = s.EmployeeCreate(ctx, data.NewEmployee("C"+token+strings.Repeat("x", 50),
		birthDate(1980, time.March, 3), data.SexMale))
	assert.NotNil(t, err)

	// nothing was written
	assert.Equal(t, int64(0), s.countPrefix(t, "C"+token))
}

func (s *sqlTest) TestEmployeesCreate(t *testing.T) {
	ctx := context.TODO()
	firstLetter, sex := "F", data.SexMale

	// generate employees with a template
	token := internal.GenerateId()[:8]
	gen := generator.NewGenerator()
	employees := gen.Generate(100, data.EmployeeTemplate{
		Sex:         &sex,
		FirstLetter: &firstLetter,
	})
	for _, employee := range employees {
		employee.FullName = "F" + token + employee.FullName[1:]
		if len(employee.FullName) > 50 {
			employee.FullName = employee.FullName[:50]
		}
	}

	// bulk insert
	var inserted int
	err := s.EmployeesCreate(ctx, employees, func(n int) {
		inserted += n
	})
	assert.Nil(t, err)
	assert.Equal(t, 100, inserted)

	// validate that every employee was written
	search := data.EmployeeSearch{Sex: data.SexMale, FullNamePrefix: "F" + token}
	count, err := s.EmployeesCount(ctx, search)
	assert.Nil(t, err)
	assert.Equal(t, int64(100), count)
	employeesRead, err := s.EmployeesSearch(ctx, search)
	assert.Nil(t, err)
	assert.Len(t, employeesRead, 100)
	for _, employee := range employeesRead {
		assert.Equal(t, data.SexMale, employee.Sex)
		assert.True(t, strings.HasPrefix(employee.FullName, "F"))
	}

	// search with a limit
	search.Limit = 5
	employeesRead, err = s.EmployeesSearch(ctx, search)
	assert.Nil(t, err)
	assert.Len(t, employeesRead, 5)

	// empty bulk insert
	err = s.EmployeesCreate(ctx, nil, nil)
	assert.Nil(t, err)
}

func (s *sqlTest) TestEmployeesCreateAtomic(t *testing.T) {
	ctx := context.TODO()

	// create a batch that fails part way through
	token := internal.GenerateId()[:8]
	var employees []*data.Employee
	for i := 0; i < 25; i++ {
		sex := data.SexFemale
		if i == 20 {
			sex = data.Sex("Other")
		}
		employees = append(employees, data.NewEmployee("A"+token+" Atomic",
			birthDate(1970, time.June, 1), sex))
	}
	err := s.EmployeesCreate(ctx, employees, nil)
	assert.NotNil(t, err)

	// validate that nothing was written
	assert.Equal(t, int64(0), s.countPrefix(t, "A"+token))
}

func (s *sqlTest) TestEmployeesUnique(t *testing.T) {
	ctx := context.TODO()

	// create two identical employees and one that differs by sex
	token := internal.GenerateId()[:8]
	fullName := "U" + token + " Twin Twin"
	for _, sex := range []data.Sex{data.SexMale, data.SexMale, data.SexFemale} {
		_, err := s.EmployeeCreate(ctx, data.NewEmployee(fullName,
			birthDate(1985, time.July, 7), sex))
		assert.Nil(t, err)
	}

	// list unique employees
	employees, err := s.EmployeesUnique(ctx)
	assert.Nil(t, err)
	var matches []*data.EmployeeUnique
	for _, employee := range employees {
		if employee.FullName == fullName {
			matches = append(matches, employee)
		}
	}
	assert.Len(t, matches, 2)
	assert.Contains(t, matches, &data.EmployeeUnique{
		FullName:  fullName,
		Sex:       data.SexMale,
		BirthDate: birthDate(1985, time.July, 7),
	})
	assert.Contains(t, matches, &data.EmployeeUnique{
		FullName:  fullName,
		Sex:       data.SexFemale,
		BirthDate: birthDate(1985, time.July, 7),
	})
}

func (s *sqlTest) TestEmployeesPrefix(t *testing.T) {
	ctx := context.TODO()

	token := internal.GenerateId()[:8]
	for _, fullName := range []string{
		"P" + token + "_a One Two",
		"P" + token + "ba One Two",
		"p" + token + "ca One Two",
	} {
		_, err := s.EmployeeCreate(ctx, data.NewEmployee(fullName,
			birthDate(1999, time.December, 31), data.SexMale))
		assert.Nil(t, err)
	}

	// prefix matching is case sensitive
	assert.Equal(t, int64(2), s.countPrefix(t, "P"+token))
	assert.Equal(t, int64(1), s.countPrefix(t, "p"+token))

	// wildcards in the prefix are literal
	assert.Equal(t, int64(1), s.countPrefix(t, "P"+token+"_"))
	assert.Equal(t, int64(0), s.countPrefix(t, "P"+token+"%"))
}

func testSql(t *testing.T, driver string) {
	c := newSqlTest()

	ctx := context.TODO()
	testEnvs := make(map[string]string)
	for key, value := range envs {
		testEnvs[key] = value
	}
	for key, value := range driverEnvs[driver] {
		testEnvs[key] = value
	}
	err := c.sql.Configure(testEnvs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure sqlTest")
	}
	err = c.sql.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open sqlTest")
	}
	defer func() {
		_ = c.sql.Close(ctx)
	}()

	// create schema, it can be created more than once
	err = c.SchemaCreate(ctx)
	assert.Nil(t, err)
	err = c.SchemaCreate(ctx)
	assert.Nil(t, err)

	t.Run("Employee", c.TestEmployee)
	t.Run("Employee Constraints", c.TestEmployeeConstraints)
	t.Run("Employees Create", c.TestEmployeesCreate)
	t.Run("Employees Create Atomic", c.TestEmployeesCreateAtomic)
	t.Run("Employees Unique", c.TestEmployeesUnique)
	t.Run("Employees Prefix", c.TestEmployeesPrefix)
}

func TestSqlSqlite(t *testing.T) {
	testSql(t, "sqlite")
}

func TestSqlPostgres(t *testing.T) {
	if !strings.Contains(envs["DATABASE_TEST_DRIVERS"], "postgres") {
		t.Skip("postgres not in DATABASE_TEST_DRIVERS")
	}
	testSql(t, "postgres")
}

func TestSqlMysql(t *testing.T) {
	if !strings.Contains(envs["DATABASE_TEST_DRIVERS"], "mysql") {
		t.Skip("mysql not in DATABASE_TEST_DRIVERS")
	}
	testSql(t, "mysql")
}

func TestSqlNotOpen(t *testing.T) {
	s := sql.NewSql()
	err := s.Configure(map[string]string{"DATABASE_DRIVER": "sqlite"})
	assert.Nil(t, err)
	err = s.SchemaCreate(context.TODO())
	assert.ErrorIs(t, err, sql.ErrNotOpen)
	err = s.Close(context.TODO())
	assert.Nil(t, err)
}

func TestSqlUnsupportedDriver(t *testing.T) {
	s := sql.NewSql()
	err := s.Configure(map[string]string{"DATABASE_DRIVER": "oracle"})
	assert.ErrorIs(t, err, sql.ErrUnsupportedDriver)
}
