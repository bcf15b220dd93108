package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"

	stashmemory "github.com/antonio-alexander/go-stash/memory"
	stashredis "github.com/antonio-alexander/go-stash/redis"
)

const (
	TypeMemory      string = "memory"
	TypeRedis       string = "redis"
	TypeStashMemory string = "stash-memory"
	TypeStashRedis  string = "stash-redis"
)

const (
	keyEmployeesUnique string = "employees_unique"
	keyEmployeesCount  string = "employees_count"
	defaultTTL                = time.Minute
)

var (
	ErrEmployeesUniqueNotCached = errors.New("employees unique not cached")
	ErrEmployeesCountNotCached  = errors.New("employees count not cached")
	ErrUnsupportedType          = errors.New("unsupported cache type")
)

// Cache holds the results of the read-only queries, it's cleared
// whenever the employees table is written to
type Cache interface {
	EmployeesUniqueRead(ctx context.Context) ([]*data.EmployeeUnique, error)
	EmployeesUniqueWrite(ctx context.Context, employees []*data.EmployeeUnique) error
	EmployeesCountRead(ctx context.Context, search data.EmployeeSearch) (int64, error)
	EmployeesCountWrite(ctx context.Context, search data.EmployeeSearch, count int64) error
}

// New creates a cache using the given type, parameters are passed
// through to the implementation
func New(cacheType string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
}, error) {
	switch cacheType {
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, cacheType)
	case TypeMemory:
		return NewMemory(parameters...), nil
	case TypeRedis:
		return NewRedis(parameters...), nil
	case TypeStashMemory:
		return NewStash(append(parameters, stashmemory.New())...), nil
	case TypeStashRedis:
		return NewStash(append(parameters, stashredis.New())...), nil
	}
}

func countKey(search data.EmployeeSearch) string {
	return keyEmployeesCount + ":" + search.ToKey()
}

func copyEmployeesUnique(e []*data.EmployeeUnique) []*data.EmployeeUnique {
	employees := make([]*data.EmployeeUnique, 0, len(e))
	for _, employee := range e {
		employeeCopy := *employee
		employees = append(employees, &employeeCopy)
	}
	return employees
}
