package cachet

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/resty.v1"

	"github.com/leefowlercu/statusmirror/internal/metrics"
	"github.com/leefowlercu/statusmirror/internal/version"
)

const (
	apiPrefix = "/api/v1"

	// pageSize is the per_page value used for list requests.
	pageSize = 100
)

// Config holds Cachet client settings.
type Config struct {
	// Server is the Cachet base URL, without the /api/v1 suffix.
	Server string

	// Token is sent in the X-Cachet-Token header.
	Token string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration

	// RateLimit is the maximum number of requests per second. Zero disables limiting.
	RateLimit float64
}

// Client talks to the Cachet API.
// It is safe for concurrent use.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Cachet client.
func New(cfg Config, opts ...Option) *Client {
	httpClient := resty.New().
		SetHostURL(strings.TrimRight(cfg.Server, "/")+apiPrefix).
		SetHeader("X-Cachet-Token", cfg.Token).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", version.UserAgent())
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // operator opt-in
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	c := &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

type itemEnvelope[T any] struct {
	Data T `json:"data"`
}

type errorEnvelope struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Ping checks that the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/ping", nil, nil, nil)
}

// Component returns the component with the given id.
func (c *Client) Component(ctx context.Context, id int) (Component, error) {
	var env itemEnvelope[Component]
	err := c.do(ctx, "get_component", http.MethodGet, "/components/"+strconv.Itoa(id), nil, nil, &env)
	if err != nil {
		return Component{}, err
	}
	return env.Data, nil
}

// Components returns every component.
func (c *Client) Components(ctx context.Context) ([]Component, error) {
	return list[Component](ctx, c, "list_components", "/components", nil)
}

// FindComponentByName returns the component with the exact name in the given group.
// A groupID of zero matches ungrouped components. Returns ErrNotFound when absent.
func (c *Client) FindComponentByName(ctx context.Context, name string, groupID int) (Component, error) {
	components, err := list[Component](ctx, c, "find_component", "/components", map[string]string{
		"name": name,
	})
	if err != nil {
		return Component{}, err
	}
	for _, comp := range components {
		if comp.Name == name && comp.GroupID == groupID {
			return comp, nil
		}
	}
	return Component{}, ErrNotFound
}

// CreateComponent creates a component.
func (c *Client) CreateComponent(ctx context.Context, comp NewComponent) (Component, error) {
	if comp.Status == 0 {
		comp.Status = ComponentOperational
	}
	var env itemEnvelope[Component]
	if err := c.do(ctx, "create_component", http.MethodPost, "/components", nil, comp, &env); err != nil {
		return Component{}, err
	}
	c.logger.Info("component created",
		"component", env.Data.Name,
		"component_id", env.Data.ID,
		"group_id", env.Data.GroupID,
	)
	return env.Data, nil
}

// UpdateComponentStatus sets the status of a component.
func (c *Client) UpdateComponentStatus(ctx context.Context, id int, status ComponentStatus) (Component, error) {
	body := map[string]any{"status": status}
	var env itemEnvelope[Component]
	if err := c.do(ctx, "update_component", http.MethodPut, "/components/"+strconv.Itoa(id), nil, body, &env); err != nil {
		return Component{}, err
	}
	c.logger.Info("component updated",
		"component", env.Data.Name,
		"component_id", id,
		"status", env.Data.Status.String(),
	)
	return env.Data, nil
}

// FindGroupByName returns the component group with the exact name.
// Returns ErrNotFound when absent.
func (c *Client) FindGroupByName(ctx context.Context, name string) (Group, error) {
	groups, err := list[Group](ctx, c, "find_group", "/components/groups", nil)
	if err != nil {
		return Group{}, err
	}
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}
	return Group{}, ErrNotFound
}

// CreateGroup creates a collapsed-when-operational component group.
func (c *Client) CreateGroup(ctx context.Context, name string) (Group, error) {
	body := map[string]any{"name": name, "collapsed": 2}
	var env itemEnvelope[Group]
	if err := c.do(ctx, "create_group", http.MethodPost, "/components/groups", nil, body, &env); err != nil {
		return Group{}, err
	}
	c.logger.Info("component group created", "group", env.Data.Name, "group_id", env.Data.ID)
	return env.Data, nil
}

// LastIncident returns the most recent incident of a component,
// or NoIncident when the component has none.
func (c *Client) LastIncident(ctx context.Context, componentID int) (Incident, error) {
	incidents, err := list[Incident](ctx, c, "last_incident", "/incidents", map[string]string{
		"component_id": strconv.Itoa(componentID),
		"sort":         "id",
		"order":        "desc",
	})
	if err != nil {
		return Incident{}, err
	}

	last := NoIncident
	for _, inc := range incidents {
		if inc.ComponentID == componentID && inc.ID > last.ID {
			last = inc
		}
	}
	return last, nil
}

// CreateIncident creates an incident.
func (c *Client) CreateIncident(ctx context.Context, inc NewIncident) (Incident, error) {
	var env itemEnvelope[Incident]
	if err := c.do(ctx, "create_incident", http.MethodPost, "/incidents", nil, inc, &env); err != nil {
		return Incident{}, err
	}
	c.logger.Info("incident created",
		"incident", inc.Name,
		"incident_id", env.Data.ID,
		"component_id", inc.ComponentID,
	)
	return env.Data, nil
}

// UpdateIncident updates an incident in place.
func (c *Client) UpdateIncident(ctx context.Context, id int, upd IncidentUpdate) (Incident, error) {
	var env itemEnvelope[Incident]
	if err := c.do(ctx, "update_incident", http.MethodPut, "/incidents/"+strconv.Itoa(id), nil, upd, &env); err != nil {
		return Incident{}, err
	}
	c.logger.Info("incident updated", "incident_id", id, "status", env.Data.Status.String())
	return env.Data, nil
}

// Metrics returns every metric.
func (c *Client) Metrics(ctx context.Context) ([]Metric, error) {
	return list[Metric](ctx, c, "list_metrics", "/metrics", nil)
}

// CreateMetric creates a metric.
func (c *Client) CreateMetric(ctx context.Context, m NewMetric) (Metric, error) {
	var env itemEnvelope[Metric]
	if err := c.do(ctx, "create_metric", http.MethodPost, "/metrics", nil, m, &env); err != nil {
		return Metric{}, err
	}
	c.logger.Info("metric created", "metric", m.Name, "metric_id", env.Data.ID)
	return env.Data, nil
}

// AddMetricPoint appends a data point to a metric.
func (c *Client) AddMetricPoint(ctx context.Context, metricID int, value float64, ts time.Time) error {
	body := map[string]any{
		"value":     value,
		"timestamp": ts.Unix(),
	}
	path := fmt.Sprintf("/metrics/%d/points", metricID)
	return c.do(ctx, "add_metric_point", http.MethodPost, path, nil, body, nil)
}

// list fetches every page of a paginated collection.
func list[T any](ctx context.Context, c *Client, op, path string, query map[string]string) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		q := map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(pageSize),
		}
		for k, v := range query {
			q[k] = v
		}

		var env listEnvelope[T]
		if err := c.do(ctx, op, http.MethodGet, path, q, nil, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Data...)

		if page >= env.Meta.Pagination.TotalPages || len(env.Data) == 0 {
			return all, nil
		}
	}
}

// do performs one request and decodes the JSON response body into out.
func (c *Client) do(ctx context.Context, op, method, path string, query map[string]string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordCollaboratorRequest("cachet", op, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed; %w", err)
	}

	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	c.logger.Debug("cachet request", "method", method, "path", path)

	resp, err := req.Execute(method, path)
	if err != nil {
		return &APIError{Method: method, URL: path, Message: err.Error()}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &APIError{
			Method:     method,
			URL:        path,
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{
			Method:     method,
			URL:        path,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("failed to decode response; %v", err),
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		parts := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msg := e.Detail
			if msg == "" {
				msg = e.Title
			}
			parts = append(parts, msg)
		}
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(string(body))
}

// IsNotFound reports whether err is ErrNotFound or a 404 response.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
