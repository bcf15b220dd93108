package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/logic"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/pkg/errors"
)

// Client executes the logic remotely through the http service, it also
// exposes the cache and timer endpoints
type Client interface {
	logic.Logic
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol   string
		address    string
		port       string
		timeout     int64
		seedTimeout int64
		sslCaFile   string
		sslCrtFile  string
		sslKeyFile  string
	}
	address     string
	timeout     time.Duration
	seedTimeout time.Duration
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NewNopLogger(),
	}
	c.config.protocol = "http"
	c.config.address = "localhost"
	c.config.port = "8080"
	c.config.timeout = 10
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

// doRequest executes a request bounded by timeout, zero means the request
// is only bounded by the context
func (c *client) doRequest(ctx context.Context, timeout time.Duration, uri, method string, item any) ([]byte, error) {
	var contentLength int
	var contentType string
	var body io.Reader

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	switch d := item.(type) {
	case []byte:
		body = bytes.NewBuffer(d)
		contentLength = len(d)
		contentType = "application/json"
	case url.Values:
		if len(d) > 0 {
			uri = uri + "?" + d.Encode()
		}
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Add("Content-Type", contentType)
		request.Header.Add("Content-Length", strconv.Itoa(contentLength))
	}
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Add("Correlation-Id", correlationId)
	}
	response, err := c.Do(request)
	if err != nil {
		return nil, err
	}
	bytes, err := io.ReadAll(response.Body)
	defer response.Body.Close()
	if err != nil {
		return nil, err
	}
	switch response.StatusCode {
	default:
		var e struct {
			Error string `json:"error"`
		}

		if err := json.Unmarshal(bytes, &e); err != nil || e.Error == "" {
			return nil, errors.Errorf("status code: %d; %s",
				response.StatusCode, string(bytes))
		}
		return nil, errors.New(e.Error)
	case http.StatusOK, http.StatusNoContent:
		return bytes, nil
	}
}

// doResponse executes a request and decodes the json response
func (c *client) doResponse(ctx context.Context, timeout time.Duration, uri, method string, item any) (*data.Response, error) {
	bytes, err := c.doRequest(ctx, timeout, uri, method, item)
	if err != nil {
		return nil, err
	}
	response := &data.Response{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address, ok := envs["CLIENT_ADDRESS"]; ok && address != "" {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok && port != "" {
		c.config.port = port
	}
	if protocol, ok := envs["CLIENT_PROTOCOL"]; ok && protocol != "" {
		c.config.protocol = protocol
	}
	if timeout, ok := envs["CLIENT_TIMEOUT"]; ok && timeout != "" {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return err
		}
		c.config.timeout = i
	}
	if seedTimeout, ok := envs["CLIENT_SEED_TIMEOUT"]; ok && seedTimeout != "" {
		i, err := strconv.ParseInt(seedTimeout, 10, 64)
		if err != nil {
			return err
		}
		c.config.seedTimeout = i
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	//KIM: timeouts are per request, the seed request has its own
	c.timeout = time.Duration(c.config.timeout) * time.Second
	c.seedTimeout = time.Duration(c.config.seedTimeout) * time.Second
	transport, err := tlsTransport(c.config.sslCaFile, c.config.sslCrtFile,
		c.config.sslKeyFile)
	if err != nil {
		return err
	}
	c.Client.Transport = transport
	c.Debug(ctx, "client configured for: %s", c.address)
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) SchemaCreate(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.timeout, c.address+data.RouteSchema, http.MethodPut, nil)
	return err
}

func (c *client) EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error) {
	bytes, err := json.Marshal(&data.Request{Employee: employee})
	if err != nil {
		return nil, err
	}
	response, err := c.doResponse(ctx, c.timeout, c.address+data.RouteEmployees,
		http.MethodPut, bytes)
	if err != nil {
		return nil, err
	}
	return response.Employee, nil
}

func (c *client) EmployeesUnique(ctx context.Context) ([]*data.EmployeeUnique, error) {
	response, err := c.doResponse(ctx, c.timeout, c.address+data.RouteEmployeesUnique,
		http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return response.EmployeesUnique, nil
}

func (c *client) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	response, err := c.doResponse(ctx, c.timeout, c.address+data.RouteEmployeesSearch,
		http.MethodGet, search.ToParams())
	if err != nil {
		return nil, err
	}
	return response.Employees, nil
}

func (c *client) EmployeesCount(ctx context.Context, search data.EmployeeSearch) (int64, error) {
	response, err := c.doResponse(ctx, c.timeout, c.address+data.RouteEmployeesCount,
		http.MethodGet, search.ToParams())
	if err != nil {
		return 0, err
	}
	return response.Count, nil
}

func (c *client) EmployeesSeed(ctx context.Context, quantity int, template data.EmployeeTemplate) (int, error) {
	bytes, err := json.Marshal(&data.Request{
		Quantity:         quantity,
		EmployeeTemplate: &template,
	})
	if err != nil {
		return 0, err
	}
	response, err := c.doResponse(ctx, c.seedTimeout, c.address+data.RouteEmployeesSeed,
		http.MethodPost, bytes)
	if err != nil {
		return 0, err
	}
	return int(response.Count), nil
}

func (c *client) CacheClear(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.timeout, c.address+data.RouteCache, http.MethodDelete, nil)
	return err
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	bytes, err := c.doRequest(ctx, c.timeout, c.address+data.RouteCacheCounters, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	response := &data.CacheCounters{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.timeout, c.address+data.RouteCacheCounters, http.MethodDelete, nil)
	return err
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	bytes, err := c.doRequest(ctx, c.timeout, c.address+data.RouteTimers, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	response := &data.Timers{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.timeout, c.address+data.RouteTimers, http.MethodDelete, nil)
	return err
}
