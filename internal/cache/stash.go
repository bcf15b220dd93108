package cache

import (
	"context"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

type stashCache struct {
	logger utilities.Logger
	stash  interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
}

func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{logger: utilities.NewNopLogger()}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Initialize()
	}
	return nil
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	if c.Stasher == nil {
		return nil
	}
	return c.Stasher.Clear()
}

func (c *stashCache) EmployeesUniqueRead(ctx context.Context) ([]*data.EmployeeUnique, error) {
	if c.Stasher == nil {
		return nil, ErrEmployeesUniqueNotCached
	}
	employees := &data.EmployeesUnique{}
	if err := c.Stasher.Read(keyEmployeesUnique, employees); err != nil {
		c.logger.Trace(ctx, "cache miss for employees unique: %s", err)
		return nil, ErrEmployeesUniqueNotCached
	}
	c.logger.Trace(ctx, "cache hit for employees unique")
	return employees.Employees, nil
}

func (c *stashCache) EmployeesUniqueWrite(ctx context.Context, employees []*data.EmployeeUnique) error {
	if c.Stasher == nil {
		return nil
	}
	if _, err := c.Stasher.Write(keyEmployeesUnique,
		&data.EmployeesUnique{Employees: employees}); err != nil {
		c.logger.Error(ctx, "error while writing employees unique: %s", err)
		return err
	}
	c.logger.Trace(ctx, "cached %d unique employees", len(employees))
	return nil
}

func (c *stashCache) EmployeesCountRead(ctx context.Context, search data.EmployeeSearch) (int64, error) {
	if c.Stasher == nil {
		return 0, ErrEmployeesCountNotCached
	}
	key := countKey(search)
	count := &data.EmployeesCount{}
	if err := c.Stasher.Read(key, count); err != nil {
		c.logger.Trace(ctx, "cache miss for employees count: %s", key)
		return 0, ErrEmployeesCountNotCached
	}
	c.logger.Trace(ctx, "cache hit for employees count: %s", key)
	return count.Count, nil
}

func (c *stashCache) EmployeesCountWrite(ctx context.Context, search data.EmployeeSearch, count int64) error {
	if c.Stasher == nil {
		return nil
	}
	key := countKey(search)
	if _, err := c.Stasher.Write(key, &data.EmployeesCount{Count: count}); err != nil {
		c.logger.Error(ctx, "error while writing employees count (%s): %s", key, err)
		return err
	}
	c.logger.Trace(ctx, "cached employees count: %s", key)
	return nil
}
