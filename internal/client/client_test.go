package client_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"net/url"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/cache"
	"github.com/antonio-alexander/go-employees/internal/client"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/generator"
	"github.com/antonio-alexander/go-employees/internal/logic"
	"github.com/antonio-alexander/go-employees/internal/service"
	"github.com/antonio-alexander/go-employees/internal/sql"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/stretchr/testify/assert"
)

var envs = map[string]string{
	//sql
	"DATABASE_DRIVER": "sqlite",
	"DATABASE_NAME":   ":memory:",

	//logic
	"LOGIC_CACHE_ENABLED": "true",

	//service
	"SERVICE_TIMERS_ENABLED": "true",

	//client
	"CLIENT_PROTOCOL": "http",
	"CLIENT_TIMEOUT":  "10",
	"SSL_CA_FILE":     "",
	"SSL_KEY_FILE":    "",
	"SSL_CRT_FILE":    "",
}

type clientTest struct {
	client interface {
		internal.Configurer
		internal.Opener
		client.Client
	}
}

// newService starts the logic and its dependencies in-process and returns
// the service handler
func newService(t *testing.T) http.Handler {
	ctx := context.TODO()
	sql := sql.NewSql()
	cache := cache.NewMemory()
	generator := generator.NewGenerator()
	counter := utilities.NewCounter()
	logic := logic.NewLogic(sql, generator, cache, counter)
	service := service.NewService(logic, cache, counter)
	for _, c := range []internal.Configurer{sql, cache, generator, logic, service} {
		if err := c.Configure(envs); err != nil {
			assert.FailNow(t, "unable to configure", err)
		}
	}
	if err := sql.Open(ctx); err != nil {
		assert.FailNow(t, "unable to open sql", err)
	}
	if err := cache.Open(ctx); err != nil {
		assert.FailNow(t, "unable to open cache", err)
	}
	t.Cleanup(func() {
		_ = cache.Close(ctx)
		_ = sql.Close(ctx)
	})
	return service
}

// newClient points a client at server, overrides are applied on top of
// the default envs
func newClient(t *testing.T, server *httptest.Server, overrides map[string]string) interface {
	internal.Configurer
	internal.Opener
	client.Client
} {
	ctx := context.TODO()
	u, err := url.Parse(server.URL)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to parse server url")
	}
	address, port, err := net.SplitHostPort(u.Host)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to split server host")
	}
	clientEnvs := map[string]string{"CLIENT_ADDRESS": address, "CLIENT_PORT": port}
	for key, value := range envs {
		clientEnvs[key] = value
	}
	for key, value := range overrides {
		clientEnvs[key] = value
	}
	client := client.NewClient()
	if err := client.Configure(clientEnvs); err != nil {
		assert.FailNow(t, "unable to configure client", err)
	}
	if err := client.Open(ctx); err != nil {
		assert.FailNow(t, "unable to open client", err)
	}
	t.Cleanup(func() {
		_ = client.Close(ctx)
	})
	return client
}

func newClientTest(t *testing.T) *clientTest {
	server := httptest.NewServer(newService(t))
	t.Cleanup(server.Close)
	return &clientTest{client: newClient(t, server, nil)}
}

func (c *clientTest) TestEmployees(t *testing.T) {
	ctx := internal.CtxWithCorrelationId(context.TODO(), internal.GenerateId())
	fullName := "Fisher " + internal.GenerateId()[:8]
	birthDate := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)

	err := c.client.SchemaCreate(ctx)
	assert.Nil(t, err)

	//create
	employee, err := c.client.EmployeeCreate(ctx, data.NewEmployee(fullName, birthDate, data.SexMale))
	assert.Nil(t, err)
	if assert.NotNil(t, employee) {
		assert.Greater(t, employee.Id, int64(0))
	}

	//errors from the service are returned
	_, err = c.client.EmployeeCreate(ctx, data.NewEmployee("", birthDate, data.SexMale))
	assert.NotNil(t, err)

	//search
	employees, err := c.client.EmployeesSearch(ctx, data.EmployeeSearch{FullNamePrefix: fullName})
	assert.Nil(t, err)
	if assert.Len(t, employees, 1) {
		assert.Equal(t, fullName, employees[0].FullName)
		assert.Equal(t, data.SexMale, employees[0].Sex)
	}

	//unique
	employeesUnique, err := c.client.EmployeesUnique(ctx)
	assert.Nil(t, err)
	assert.NotEmpty(t, employeesUnique)

	//seed and count
	search := data.EmployeeSearch{Sex: data.SexMale, FullNamePrefix: "F"}
	countBefore, err := c.client.EmployeesCount(ctx, search)
	assert.Nil(t, err)
	assert.GreaterOrEqual(t, countBefore, int64(1))
	sex, firstLetter := data.SexMale, "F"
	n, err := c.client.EmployeesSeed(ctx, 15, data.EmployeeTemplate{
		Sex:         &sex,
		FirstLetter: &firstLetter,
	})
	assert.Nil(t, err)
	assert.Equal(t, 15, n)
	countAfter, err := c.client.EmployeesCount(ctx, search)
	assert.Nil(t, err)
	assert.Equal(t, countBefore+15, countAfter)
}

func (c *clientTest) TestCacheAndTimers(t *testing.T) {
	ctx := context.TODO()

	err := c.client.CacheClear(ctx)
	assert.Nil(t, err)
	err = c.client.CacheCountersClear(ctx)
	assert.Nil(t, err)
	for i := 0; i < 3; i++ {
		_, err := c.client.EmployeesUnique(ctx)
		assert.Nil(t, err)
	}
	counters, err := c.client.CacheCountersRead(ctx)
	assert.Nil(t, err)
	if assert.NotNil(t, counters) {
		assert.Equal(t, 2, counters.CounterHits["employees_unique"])
		assert.Equal(t, 1, counters.CounterMisses["employees_unique"])
	}

	timers, err := c.client.TimersRead(ctx)
	assert.Nil(t, err)
	if assert.NotNil(t, timers) {
		assert.Contains(t, timers.Totals, "employees_unique")
	}
	err = c.client.TimersClear(ctx)
	assert.Nil(t, err)
	timers, err = c.client.TimersRead(ctx)
	assert.Nil(t, err)
	if assert.NotNil(t, timers) {
		assert.Empty(t, timers.Totals)
	}
}

func TestClient(t *testing.T) {
	c := newClientTest(t)
	t.Run("Employees", c.TestEmployees)
	t.Run("Cache and Timers", c.TestCacheAndTimers)
}

func TestClientUnsupportedProtocol(t *testing.T) {
	c := client.NewClient()
	err := c.Configure(map[string]string{"CLIENT_PROTOCOL": "ftp"})
	assert.Nil(t, err)
	err = c.Open(context.TODO())
	assert.NotNil(t, err)
}

func TestClientSeedTimeout(t *testing.T) {
	const delay = 1500 * time.Millisecond

	ctx := context.TODO()
	service := newService(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != data.RouteSchema {
			time.Sleep(delay)
		}
		service.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	sex, firstLetter := data.SexMale, "F"
	template := data.EmployeeTemplate{Sex: &sex, FirstLetter: &firstLetter}

	//seeding outlives the request timeout
	c := newClient(t, server, map[string]string{"CLIENT_TIMEOUT": "1"})
	err := c.SchemaCreate(ctx)
	assert.Nil(t, err)
	n, err := c.EmployeesSeed(ctx, 10, template)
	assert.Nil(t, err)
	assert.Equal(t, 10, n)

	//other requests are still bounded by the timeout
	_, err = c.EmployeesCount(ctx, data.EmployeeSearch{Sex: data.SexMale})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	//seeding can be bounded too
	c = newClient(t, server, map[string]string{
		"CLIENT_TIMEOUT":      "10",
		"CLIENT_SEED_TIMEOUT": "1",
	})
	_, err = c.EmployeesSeed(ctx, 10, template)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientConfigureInvalidTimeout(t *testing.T) {
	for _, key := range []string{"CLIENT_TIMEOUT", "CLIENT_SEED_TIMEOUT"} {
		c := client.NewClient()
		err := c.Configure(map[string]string{key: "ten"})
		assert.NotNil(t, err, key)
	}
}

// writeCertificate writes a self-signed certificate (usable as the ca, the
// server and the client certificate) for 127.0.0.1
func writeCertificate(t *testing.T, dir string) (tls.Certificate, string, string) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to generate key")
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "go-employees"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create certificate")
	}
	keyDer, err := x509.MarshalECPrivateKey(key)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to marshal key")
	}
	crtPem := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPem := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer})
	crtFile, keyFile := filepath.Join(dir, "client.crt"), filepath.Join(dir, "client.key")
	if err := os.WriteFile(crtFile, crtPem, 0600); err != nil {
		assert.FailNow(t, "unable to write certificate", err)
	}
	if err := os.WriteFile(keyFile, keyPem, 0600); err != nil {
		assert.FailNow(t, "unable to write key", err)
	}
	certificate, err := tls.X509KeyPair(crtPem, keyPem)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to load key pair")
	}
	return certificate, crtFile, keyFile
}

func TestClientTls(t *testing.T) {
	ctx := context.TODO()
	dir := t.TempDir()
	certificate, crtFile, keyFile := writeCertificate(t, dir)
	leaf, err := x509.ParseCertificate(certificate.Certificate[0])
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to parse certificate")
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	server := httptest.NewUnstartedServer(newService(t))
	server.TLS = &tls.Config{
		Certificates: []tls.Certificate{certificate},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
	}
	server.StartTLS()
	t.Cleanup(server.Close)

	//mutual tls
	c := newClient(t, server, map[string]string{
		"CLIENT_PROTOCOL": "https",
		"SSL_CA_FILE":     crtFile,
		"SSL_CRT_FILE":    crtFile,
		"SSL_KEY_FILE":    keyFile,
	})
	err = c.SchemaCreate(ctx)
	assert.Nil(t, err)
	count, err := c.EmployeesCount(ctx, data.EmployeeSearch{})
	assert.Nil(t, err)
	assert.Equal(t, int64(0), count)

	//without a client certificate the server refuses the connection
	c = newClient(t, server, map[string]string{"CLIENT_PROTOCOL": "https"})
	err = c.SchemaCreate(ctx)
	assert.NotNil(t, err)

	//invalid files fail on open
	emptyFile := filepath.Join(dir, "empty.crt")
	if err := os.WriteFile(emptyFile, []byte(strings.Repeat("-", 8)), 0600); err != nil {
		assert.FailNow(t, "unable to write file", err)
	}
	for _, files := range [][3]string{
		{filepath.Join(dir, "missing.crt"), crtFile, keyFile},
		{emptyFile, crtFile, keyFile},
		{crtFile, crtFile, emptyFile},
	} {
		c := client.NewClient()
		err := c.Configure(map[string]string{
			"CLIENT_PROTOCOL": "https",
			"SSL_CA_FILE":     files[0],
			"SSL_CRT_FILE":    files[1],
			"SSL_KEY_FILE":    files[2],
		})
		assert.Nil(t, err)
		err = c.Open(ctx)
		assert.NotNil(t, err)
	}
}
