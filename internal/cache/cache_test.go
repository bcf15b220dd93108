package cache_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/cache"
	"github.com/antonio-alexander/go-employees/internal/data"

	"github.com/stretchr/testify/assert"
)

var envs = map[string]string{
	"REDIS_ADDRESS": "localhost",
	"REDIS_PORT":    "6379",
	"REDIS_TIMEOUT": "10",
	"CACHE_TTL":     "60",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type cacheTest struct {
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
}

func newCacheTest(t *testing.T, cacheType string) *cacheTest {
	c, err := cache.New(cacheType)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create cache")
	}
	return &cacheTest{cache: c}
}

func (c *cacheTest) TestEmployeesUnique(t *testing.T) {
	ctx := context.TODO()
	employees := []*data.EmployeeUnique{
		{
			FullName:  internal.GenerateId(),
			Sex:       data.SexMale,
			BirthDate: time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			FullName:  internal.GenerateId(),
			Sex:       data.SexFemale,
			BirthDate: time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC),
		},
	}

	//clear cache
	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	//read before write
	employeesRead, err := c.cache.EmployeesUniqueRead(ctx)
	assert.ErrorIs(t, err, cache.ErrEmployeesUniqueNotCached)
	assert.Nil(t, employeesRead)

	//write and read
	err = c.cache.EmployeesUniqueWrite(ctx, employees)
	assert.Nil(t, err)
	employeesRead, err = c.cache.EmployeesUniqueRead(ctx)
	assert.Nil(t, err)
	assert.Equal(t, employees, employeesRead)

	//clear and read
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)
	_, err = c.cache.EmployeesUniqueRead(ctx)
	assert.ErrorIs(t, err, cache.ErrEmployeesUniqueNotCached)
}

func (c *cacheTest) TestEmployeesCount(t *testing.T) {
	ctx := context.TODO()
	searchMale := data.EmployeeSearch{
		Sex:            data.SexMale,
		FullNamePrefix: "F",
	}
	searchFemale := data.EmployeeSearch{
		Sex: data.SexFemale,
	}

	//clear cache
	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	//read before write
	_, err = c.cache.EmployeesCountRead(ctx, searchMale)
	assert.ErrorIs(t, err, cache.ErrEmployeesCountNotCached)

	//write and read, searches are keyed separately
	err = c.cache.EmployeesCountWrite(ctx, searchMale, 101)
	assert.Nil(t, err)
	err = c.cache.EmployeesCountWrite(ctx, searchFemale, 7)
	assert.Nil(t, err)
	count, err := c.cache.EmployeesCountRead(ctx, searchMale)
	assert.Nil(t, err)
	assert.Equal(t, int64(101), count)
	count, err = c.cache.EmployeesCountRead(ctx, searchFemale)
	assert.Nil(t, err)
	assert.Equal(t, int64(7), count)

	//overwrite
	err = c.cache.EmployeesCountWrite(ctx, searchMale, 0)
	assert.Nil(t, err)
	count, err = c.cache.EmployeesCountRead(ctx, searchMale)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), count)

	//clear and read
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)
	_, err = c.cache.EmployeesCountRead(ctx, searchFemale)
	assert.ErrorIs(t, err, cache.ErrEmployeesCountNotCached)
}

func testCache(t *testing.T, cacheType string) {
	ctx := context.TODO()
	c := newCacheTest(t, cacheType)
	err := c.cache.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure cache")
	}
	err = c.cache.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		if err := c.cache.Close(ctx); err != nil {
			t.Logf("error while closing cache: %s", err)
		}
	}()
	t.Run("Employees Unique", c.TestEmployeesUnique)
	t.Run("Employees Count", c.TestEmployeesCount)
}

func TestCacheMemory(t *testing.T) {
	testCache(t, cache.TypeMemory)
}

func TestCacheMemoryExpiration(t *testing.T) {
	ctx := context.TODO()
	c := cache.NewMemory()
	err := c.Configure(map[string]string{"CACHE_TTL": "1"})
	assert.Nil(t, err)
	err = c.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		_ = c.Close(ctx)
	}()
	err = c.EmployeesCountWrite(ctx, data.EmployeeSearch{}, 1)
	assert.Nil(t, err)
	count, err := c.EmployeesCountRead(ctx, data.EmployeeSearch{})
	assert.Nil(t, err)
	assert.Equal(t, int64(1), count)
	time.Sleep(1500 * time.Millisecond)
	_, err = c.EmployeesCountRead(ctx, data.EmployeeSearch{})
	assert.ErrorIs(t, err, cache.ErrEmployeesCountNotCached)
}

func TestCacheUnsupported(t *testing.T) {
	c, err := cache.New("mongo")
	assert.ErrorIs(t, err, cache.ErrUnsupportedType)
	assert.Nil(t, c)
}

func TestCacheRedis(t *testing.T) {
	if os.Getenv("REDIS_ADDRESS") == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	testCache(t, cache.TypeRedis)
}

func TestCacheStashMemory(t *testing.T) {
	if os.Getenv("CACHE_TEST_STASH") == "" {
		t.Skip("CACHE_TEST_STASH not set")
	}
	testCache(t, cache.TypeStashMemory)
}

func TestCacheStashRedis(t *testing.T) {
	if os.Getenv("REDIS_ADDRESS") == "" || os.Getenv("CACHE_TEST_STASH") == "" {
		t.Skip("REDIS_ADDRESS or CACHE_TEST_STASH not set")
	}
	testCache(t, cache.TypeStashRedis)
}
