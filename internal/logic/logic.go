package logic

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/cache"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/generator"
	"github.com/antonio-alexander/go-employees/internal/sql"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/schollz/progressbar/v2"
)

const (
	counterEmployeesUnique string = "employees_unique"
	counterEmployeesCount  string = "employees_count"
)

var ErrMutateDisabled = errors.New("mutation disabled")

type Logic interface {
	SchemaCreate(ctx context.Context) error
	EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error)
	EmployeesUnique(ctx context.Context) ([]*data.EmployeeUnique, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeesCount(ctx context.Context, search data.EmployeeSearch) (int64, error)
	EmployeesSeed(ctx context.Context, quantity int, template data.EmployeeTemplate) (int, error)
}

type logic struct {
	sync.RWMutex
	sql       sql.Sql
	generator generator.Generator
	cache     interface {
		cache.Cache
		internal.Clearer
	}
	progress io.Writer
	config   struct {
		cacheEnabled   bool
		mutateDisabled bool
		seedProgress   bool
	}
	utilities.Logger
	utilities.Counter
}

// NewLogic ties storage, the generator and the optional cache together;
// an io.Writer can be provided as a parameter for the seed progress bar
func NewLogic(parameters ...any) interface {
	internal.Configurer
	Logic
} {
	l := &logic{
		Logger:   utilities.NewNopLogger(),
		Counter:  utilities.NewCounter(),
		progress: os.Stderr,
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case sql.Sql:
			l.sql = p
		case generator.Generator:
			l.generator = p
		case interface {
			cache.Cache
			internal.Clearer
		}:
			l.cache = p
		case utilities.Logger:
			l.Logger = p
		case utilities.Counter:
			l.Counter = p
		case io.Writer:
			l.progress = p
		}
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["LOGIC_MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	if seedProgress, ok := envs["LOGIC_SEED_PROGRESS"]; ok {
		l.config.seedProgress, _ = strconv.ParseBool(seedProgress)
	}
	if l.cache == nil {
		l.config.cacheEnabled = false
	}
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()
	return l.config.cacheEnabled
}

func (l *logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()
	return l.config.mutateDisabled
}

// cacheClear invalidates every cached result, any write to the table
// can change what the reads return
func (l *logic) cacheClear(ctx context.Context) {
	if !l.cacheEnabled() {
		return
	}
	if err := l.cache.Clear(ctx); err != nil {
		l.Error(ctx, "error while clearing cache: %s", err)
	}
}

func (l *logic) SchemaCreate(ctx context.Context) error {
	if l.mutateDisabled() {
		return ErrMutateDisabled
	}
	if err := l.sql.SchemaCreate(ctx); err != nil {
		return err
	}
	l.cacheClear(ctx)
	return nil
}

func (l *logic) EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, ErrMutateDisabled
	}
	employee, err := l.sql.EmployeeCreate(ctx, employee)
	if err != nil {
		return nil, err
	}
	l.cacheClear(ctx)
	l.Debug(ctx, "created employee: %d", employee.Id)
	return employee, nil
}

func (l *logic) EmployeesUnique(ctx context.Context) ([]*data.EmployeeUnique, error) {
	if l.cacheEnabled() {
		employees, err := l.cache.EmployeesUniqueRead(ctx)
		if err == nil {
			l.IncrementHit(counterEmployeesUnique)
			return employees, nil
		}
		l.IncrementMiss(counterEmployeesUnique)
		l.Trace(ctx, "error while reading employees unique from cache: %s", err)
	}
	employees, err := l.sql.EmployeesUnique(ctx)
	if err != nil {
		return nil, err
	}
	if l.cacheEnabled() {
		if err := l.cache.EmployeesUniqueWrite(ctx, employees); err != nil {
			l.Error(ctx, "error while writing employees unique to cache: %s", err)
		}
	}
	return employees, nil
}

func (l *logic) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	return l.sql.EmployeesSearch(ctx, search)
}

func (l *logic) EmployeesCount(ctx context.Context, search data.EmployeeSearch) (int64, error) {
	if l.cacheEnabled() {
		count, err := l.cache.EmployeesCountRead(ctx, search)
		if err == nil {
			l.IncrementHit(counterEmployeesCount)
			return count, nil
		}
		l.IncrementMiss(counterEmployeesCount)
		l.Trace(ctx, "error while reading employees count from cache: %s", err)
	}
	count, err := l.sql.EmployeesCount(ctx, search)
	if err != nil {
		return 0, err
	}
	if l.cacheEnabled() {
		if err := l.cache.EmployeesCountWrite(ctx, search, count); err != nil {
			l.Error(ctx, "error while writing employees count to cache: %s", err)
		}
	}
	return count, nil
}

// EmployeesSeed generates quantity employees using the template and
// inserts them in a single transaction, it returns how many were inserted
func (l *logic) EmployeesSeed(ctx context.Context, quantity int, template data.EmployeeTemplate) (int, error) {
	var progress func(n int)

	if l.mutateDisabled() {
		return 0, ErrMutateDisabled
	}
	employees := l.generator.Generate(quantity, template)
	if len(employees) <= 0 {
		return 0, nil
	}
	l.RLock()
	seedProgress := l.config.seedProgress
	l.RUnlock()
	if seedProgress {
		bar := progressbar.NewOptions(len(employees),
			progressbar.OptionSetWriter(l.progress))
		progress = func(n int) {
			_ = bar.Add(n)
		}
		defer func() {
			_, _ = io.WriteString(l.progress, "\n")
		}()
	}
	if err := l.sql.EmployeesCreate(ctx, employees, progress); err != nil {
		return 0, err
	}
	l.cacheClear(ctx)
	l.Debug(ctx, "seeded %d employees", len(employees))
	return len(employees), nil
}
