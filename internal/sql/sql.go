package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql" //import for driver support
	_ "github.com/jackc/pgx/v5/stdlib" //import for driver support
	_ "modernc.org/sqlite"             //import for driver support
)

const (
	DriverPostgres dialect = "postgres"
	DriverMysql    dialect = "mysql"
	DriverSqlite   dialect = "sqlite"
)

const (
	tableEmployees         string = "employees"
	indexEmployeesFullName string = "ix_employees_full_name"
	defaultBulkBatchSize   int    = 1000
	defaultDatabase        string = "test_db"
	defaultSqliteDatabase  string = "employees.db"
)

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrNotOpen           = errors.New("sql not open")
)

type Sql interface {
	SchemaCreate(ctx context.Context) error
	EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error)
	EmployeesCreate(ctx context.Context, employees []*data.Employee, progress func(n int)) error
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesUnique(ctx context.Context) ([]*data.EmployeeUnique, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeesCount(ctx context.Context, search data.EmployeeSearch) (int64, error)
}

type sqlStore struct {
	sync.RWMutex
	config struct {
		Driver         dialect       `json:"driver"`
		Url            string        `json:"url"`
		Hostname       string        `json:"hostname"`
		Port           string        `json:"port"`
		Username       string        `json:"username"`
		Password       string        `json:"password"`
		Database       string        `json:"database"`
		SslMode        string        `json:"ssl_mode"`
		QueryTimeout   time.Duration `json:"query_timeout"`
		ParseTime      bool          `json:"parse_time"`
		ConnectRetries int           `json:"connect_retries"`
		BulkBatchSize  int           `json:"bulk_batch_size"`
	}
	*sql.DB
	utilities.Logger
	opened bool
}

// NewSql creates the storage client; nothing is connected until Open
// is called and everything is released by Close
func NewSql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	s := &sqlStore{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			s.Logger = v
		}
	}
	s.config.Driver = DriverPostgres
	s.config.ParseTime = true
	s.config.SslMode = "disable"
	s.config.ConnectRetries = 1
	s.config.BulkBatchSize = defaultBulkBatchSize
	return s
}

func (s *sqlStore) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if driver := envs["DATABASE_DRIVER"]; driver != "" {
		switch d := dialect(strings.ToLower(driver)); d {
		default:
			return errors.Wrap(ErrUnsupportedDriver, driver)
		case DriverPostgres, DriverMysql, DriverSqlite:
			s.config.Driver = d
		}
	}
	s.config.Url = envs["DATABASE_URL"]
	s.config.Hostname = "localhost"
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	switch s.config.Driver {
	case DriverPostgres:
		s.config.Port = "5432"
	case DriverMysql:
		s.config.Port = "3306"
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	s.config.Database = defaultDatabase
	if s.config.Driver == DriverSqlite {
		s.config.Database = defaultSqliteDatabase
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	s.config.Username, s.config.Password = "admin", "admin"
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password, ok := envs["DATABASE_PASSWORD"]; ok {
		s.config.Password = password
	}
	if sslMode := envs["DATABASE_SSL_MODE"]; sslMode != "" {
		s.config.SslMode = sslMode
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_PARSE_TIME"]; ok {
		s.config.ParseTime, _ = strconv.ParseBool(envs["DATABASE_PARSE_TIME"])
	}
	if _, ok := envs["DATABASE_CONNECT_RETRIES"]; ok {
		if i, err := strconv.Atoi(envs["DATABASE_CONNECT_RETRIES"]); err == nil && i > 0 {
			s.config.ConnectRetries = i
		}
	}
	if _, ok := envs["DATABASE_BULK_BATCH_SIZE"]; ok {
		if i, err := strconv.Atoi(envs["DATABASE_BULK_BATCH_SIZE"]); err == nil && i > 0 {
			s.config.BulkBatchSize = i
		}
	}
	return nil
}

func (s *sqlStore) dataSourceName() string {
	if s.config.Url != "" {
		return s.config.Url
	}
	switch s.config.Driver {
	default:
		return ""
	case DriverPostgres:
		return (&url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(s.config.Username, s.config.Password),
			Host:     net.JoinHostPort(s.config.Hostname, s.config.Port),
			Path:     "/" + s.config.Database,
			RawQuery: url.Values{"sslmode": []string{s.config.SslMode}}.Encode(),
		}).String()
	case DriverMysql:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=%t",
			s.config.Username, s.config.Password, s.config.Hostname,
			s.config.Port, s.config.Database, s.config.ParseTime)
	case DriverSqlite:
		return s.config.Database
	}
}

func (s *sqlStore) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return nil
	}
	db, err := sql.Open(s.config.Driver.driverName(), s.dataSourceName())
	if err != nil {
		return errors.Wrap(err, "unable to open sql")
	}
	if s.config.Driver == DriverSqlite {
		//KIM: every connection to :memory: is a new database, a single
		// connection also keeps writers from locking each other out
		db.SetMaxOpenConns(1)
	}
	attempt := 0
	if _, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			s.Debug(ctx, "ping attempt %d failed: %s", attempt, err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(s.config.ConnectRetries)),
	); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "unable to connect to sql")
	}
	s.DB = db
	s.opened = true
	s.Info(ctx, "opened sql connection (%s)", s.config.Driver)
	return nil
}

func (s *sqlStore) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.opened = false
	return nil
}

func (s *sqlStore) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.config.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *sqlStore) SchemaCreate(ctx context.Context) error {
	s.RLock()
	defer s.RUnlock()

	if !s.opened {
		return ErrNotOpen
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	for _, statement := range s.config.Driver.schema() {
		if _, err := s.ExecContext(ctx, statement); err != nil {
			return errors.Wrap(err, "unable to create schema")
		}
	}
	s.Debug(ctx, "schema created")
	return nil
}

// EmployeeCreate writes a single employee in its own transaction, the
// generated id is set on the given employee
func (s *sqlStore) EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error) {
	s.RLock()
	defer s.RUnlock()

	var id int64

	if !s.opened {
		return nil, ErrNotOpen
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	query := s.config.Driver.insertQuery(1)
	args := employeeArgs(s.config.Driver, employee)
	switch {
	case s.config.Driver.returning():
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, errors.Wrap(err, "unable to insert employee")
		}
	default:
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, errors.Wrap(err, "unable to insert employee")
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, errors.Wrap(err, "unable to read employee id")
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "unable to commit employee")
	}
	employee.Id = id
	s.Trace(ctx, "created employee: %d", id)
	return employee, nil
}

// EmployeesCreate writes every employee within a single transaction, either
// all employees are written or none of them are; the rows are sent in
// batches of the configured size and progress is called once per batch
func (s *sqlStore) EmployeesCreate(ctx context.Context, employees []*data.Employee, progress func(n int)) error {
	s.RLock()
	defer s.RUnlock()

	var stmt *sql.Stmt

	if !s.opened {
		return ErrNotOpen
	}
	if len(employees) == 0 {
		return nil
	}
	batchSize := s.config.BulkBatchSize
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}
	defer func() {
		if stmt != nil {
			_ = stmt.Close()
		}
		_ = tx.Rollback()
	}()
	for start := 0; start < len(employees); start += batchSize {
		end := min(start+batchSize, len(employees))
		batch := employees[start:end]
		args := employeeArgs(s.config.Driver, batch...)
		switch {
		default:
			if _, err := tx.ExecContext(ctx, s.bulkQuery(len(batch)), args...); err != nil {
				return errors.Wrapf(err, "unable to insert employees %d-%d", start, end)
			}
		case len(batch) == batchSize:
			if stmt == nil {
				if stmt, err = tx.PrepareContext(ctx, s.bulkQuery(batchSize)); err != nil {
					return errors.Wrap(err, "unable to prepare bulk insert")
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.Wrapf(err, "unable to insert employees %d-%d", start, end)
			}
		}
		if progress != nil {
			progress(len(batch))
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit employees")
	}
	s.Debug(ctx, "created %d employees", len(employees))
	return nil
}

func (s *sqlStore) bulkQuery(nRows int) string {
	return fmt.Sprintf("INSERT INTO %s (full_name, birth_date, sex) VALUES %s",
		tableEmployees, s.config.Driver.values(nRows))
}

func (s *sqlStore) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	s.RLock()
	defer s.RUnlock()

	if !s.opened {
		return nil, ErrNotOpen
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	query := fmt.Sprintf(`SELECT id, full_name, birth_date, sex FROM %s WHERE id = %s;`,
		tableEmployees, s.config.Driver.placeholder(1))
	row := s.QueryRowContext(ctx, query, id)
	employee, err := employeeScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return employee, nil
}

// EmployeesUnique returns every distinct (full_name, sex, birth_date)
func (s *sqlStore) EmployeesUnique(ctx context.Context) ([]*data.EmployeeUnique, error) {
	s.RLock()
	defer s.RUnlock()

	var employees []*data.EmployeeUnique

	if !s.opened {
		return nil, ErrNotOpen
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	query := fmt.Sprintf(`SELECT full_name, sex, birth_date FROM %s
		GROUP BY full_name, sex, birth_date
		ORDER BY full_name, sex, birth_date;`, tableEmployees)
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query unique employees")
	}
	defer rows.Close()
	for rows.Next() {
		employee, err := employeeUniqueScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *sqlStore) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	s.RLock()
	defer s.RUnlock()

	var employees []*data.Employee

	if !s.opened {
		return nil, ErrNotOpen
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	criteria, args := employeeCriteria(s.config.Driver, search)
	query := fmt.Sprintf(`SELECT id, full_name, birth_date, sex FROM %s %s ORDER BY id`,
		tableEmployees, criteria)
	if search.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", search.Limit)
	}
	rows, err := s.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to search employees")
	}
	defer rows.Close()
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *sqlStore) EmployeesCount(ctx context.Context, search data.EmployeeSearch) (int64, error) {
	s.RLock()
	defer s.RUnlock()

	var count int64

	if !s.opened {
		return -1, ErrNotOpen
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	criteria, args := employeeCriteria(s.config.Driver, search)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s;`, tableEmployees, criteria)
	if err := s.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return -1, errors.Wrap(err, "unable to count employees")
	}
	return count, nil
}
