package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix string = "go-employees:"

type redisCache struct {
	redisClient *redis.Client
	config      struct {
		address  string
		port     string
		password string
		database int
		timeout  time.Duration
		ttl      time.Duration
	}
	utilities.Logger
}

func NewRedis(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &redisCache{Logger: utilities.NewNopLogger()}
	c.config.address = "localhost"
	c.config.port = "6379"
	c.config.timeout = 10 * time.Second
	c.config.ttl = defaultTTL
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *redisCache) Configure(envs map[string]string) error {
	if redisAddress, ok := envs["REDIS_ADDRESS"]; ok {
		c.config.address = redisAddress
	}
	if redisPort, ok := envs["REDIS_PORT"]; ok {
		c.config.port = redisPort
	}
	if redisPassword, ok := envs["REDIS_PASSWORD"]; ok {
		c.config.password = redisPassword
	}
	if redisDatabase, ok := envs["REDIS_DATABASE"]; ok {
		i, _ := strconv.ParseInt(redisDatabase, 10, 64)
		c.config.database = int(i)
	}
	if redisTimeout, ok := envs["REDIS_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(redisTimeout, 10, 64)
		c.config.timeout = time.Duration(i) * time.Second
	}
	if c.config.timeout <= 0 {
		c.config.timeout = 10 * time.Second
	}
	if s, ok := envs["CACHE_TTL"]; ok {
		ttl, _ := strconv.Atoi(s)
		c.config.ttl = time.Second * time.Duration(ttl)
	}
	if c.config.ttl <= 0 {
		c.config.ttl = defaultTTL
	}
	return nil
}

func (c *redisCache) Open(ctx context.Context) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.config.address, c.config.port),
		Password: c.config.password,
		DB:       c.config.database,
	})
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return errors.Wrap(err, "error while pinging redis")
	}
	c.redisClient = redisClient
	return nil
}

func (c *redisCache) Close(ctx context.Context) error {
	if c.redisClient == nil {
		return nil
	}
	if err := c.redisClient.Close(); err != nil {
		c.Error(ctx, "error while shutting down redis client: %s", err)
	}
	c.redisClient = nil
	return nil
}

// Clear removes every key this cache owns, keys are found with SCAN
// so the rest of the database is left alone
func (c *redisCache) Clear(ctx context.Context) error {
	var keys []string

	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	iter := c.redisClient.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "error while scanning keys")
	}
	if len(keys) <= 0 {
		return nil
	}
	if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "error while deleting keys")
	}
	c.Trace(ctx, "redis cache cleared (%d keys)", len(keys))
	return nil
}

func (c *redisCache) read(ctx context.Context, key string, notCached error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	value, err := c.redisClient.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		switch {
		default:
			return "", err
		case errors.Is(err, redis.Nil):
			return "", notCached
		}
	}
	return value, nil
}

func (c *redisCache) write(ctx context.Context, key string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	return c.redisClient.Set(ctx, keyPrefix+key, value, c.config.ttl).Err()
}

func (c *redisCache) EmployeesUniqueRead(ctx context.Context) ([]*data.EmployeeUnique, error) {
	value, err := c.read(ctx, keyEmployeesUnique, ErrEmployeesUniqueNotCached)
	if err != nil {
		return nil, err
	}
	employees := &data.EmployeesUnique{}
	if err := employees.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	return employees.Employees, nil
}

func (c *redisCache) EmployeesUniqueWrite(ctx context.Context, employees []*data.EmployeeUnique) error {
	if err := c.write(ctx, keyEmployeesUnique,
		&data.EmployeesUnique{Employees: employees}); err != nil {
		return errors.Wrap(err, "error while writing employees unique")
	}
	c.Trace(ctx, "cached %d unique employees", len(employees))
	return nil
}

func (c *redisCache) EmployeesCountRead(ctx context.Context, search data.EmployeeSearch) (int64, error) {
	value, err := c.read(ctx, countKey(search), ErrEmployeesCountNotCached)
	if err != nil {
		return 0, err
	}
	count := &data.EmployeesCount{}
	if err := count.UnmarshalBinary([]byte(value)); err != nil {
		return 0, err
	}
	return count.Count, nil
}

func (c *redisCache) EmployeesCountWrite(ctx context.Context, search data.EmployeeSearch, count int64) error {
	if err := c.write(ctx, countKey(search),
		&data.EmployeesCount{Count: count}); err != nil {
		return errors.Wrap(err, "error while writing employees count")
	}
	c.Trace(ctx, "cached employees count (%s): %d", search.ToKey(), count)
	return nil
}
