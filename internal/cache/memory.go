package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/utilities"
)

type memoryItem struct {
	value     any
	expiresAt time.Time
}

type memoryCache struct {
	sync.RWMutex
	sync.WaitGroup
	items  map[string]memoryItem //map[key]item
	config struct {
		ttl           time.Duration
		pruneInterval time.Duration
	}
	ctx       context.Context
	ctxCancel context.CancelFunc
	opened    bool
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		items:  make(map[string]memoryItem),
		Logger: utilities.NewNopLogger(),
	}
	c.config.ttl = defaultTTL
	c.config.pruneInterval = defaultTTL
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) launchPrune() {
	started := make(chan struct{})
	c.Add(1)
	go func() {
		defer c.Done()

		pruneFx := func() {
			c.Lock()
			defer c.Unlock()

			tNow := time.Now()
			for key, item := range c.items {
				if tNow.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
		}
		tPrune := time.NewTicker(c.config.pruneInterval)
		defer tPrune.Stop()
		close(started)
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-tPrune.C:
				pruneFx()
			}
		}
	}()
	<-started
}

func (c *memoryCache) Configure(envs map[string]string) error {
	if s, ok := envs["CACHE_TTL"]; ok {
		ttl, _ := strconv.Atoi(s)
		c.config.ttl = time.Second * time.Duration(ttl)
	}
	if c.config.ttl <= 0 {
		c.config.ttl = defaultTTL
	}
	if s, ok := envs["CACHE_PRUNE_INTERVAL"]; ok {
		pruneInterval, _ := strconv.Atoi(s)
		c.config.pruneInterval = time.Second * time.Duration(pruneInterval)
	}
	if c.config.pruneInterval <= 0 {
		c.config.pruneInterval = c.config.ttl
	}
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	if c.opened {
		return nil
	}
	c.items = make(map[string]memoryItem)
	c.ctx, c.ctxCancel = context.WithCancel(context.Background())
	c.launchPrune()
	c.opened = true
	return nil
}

func (c *memoryCache) Close(ctx context.Context) error {
	c.Lock()
	if !c.opened {
		c.Unlock()
		return nil
	}
	c.ctxCancel()
	c.opened = false
	c.Unlock()

	//KIM: the prune goroutine needs the lock to exit
	c.Wait()
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.items = make(map[string]memoryItem)
	c.Trace(ctx, "memory cache cleared")
	return nil
}

func (c *memoryCache) read(key string) (any, bool) {
	c.RLock()
	defer c.RUnlock()

	item, ok := c.items[key]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

func (c *memoryCache) write(key string, value any) {
	c.Lock()
	defer c.Unlock()

	c.items[key] = memoryItem{
		value:     value,
		expiresAt: time.Now().Add(c.config.ttl),
	}
}

func (c *memoryCache) EmployeesUniqueRead(ctx context.Context) ([]*data.EmployeeUnique, error) {
	value, ok := c.read(keyEmployeesUnique)
	if !ok {
		return nil, ErrEmployeesUniqueNotCached
	}
	employees, ok := value.([]*data.EmployeeUnique)
	if !ok {
		return nil, ErrEmployeesUniqueNotCached
	}
	return copyEmployeesUnique(employees), nil
}

func (c *memoryCache) EmployeesUniqueWrite(ctx context.Context, employees []*data.EmployeeUnique) error {
	c.write(keyEmployeesUnique, copyEmployeesUnique(employees))
	c.Trace(ctx, "cached %d unique employees", len(employees))
	return nil
}

func (c *memoryCache) EmployeesCountRead(ctx context.Context, search data.EmployeeSearch) (int64, error) {
	value, ok := c.read(countKey(search))
	if !ok {
		return 0, ErrEmployeesCountNotCached
	}
	count, ok := value.(int64)
	if !ok {
		return 0, ErrEmployeesCountNotCached
	}
	return count, nil
}

func (c *memoryCache) EmployeesCountWrite(ctx context.Context, search data.EmployeeSearch, count int64) error {
	c.write(countKey(search), count)
	c.Trace(ctx, "cached employees count (%s): %d", search.ToKey(), count)
	return nil
}
