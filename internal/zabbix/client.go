package zabbix

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/resty.v1"

	"github.com/leefowlercu/statusmirror/internal/metrics"
	"github.com/leefowlercu/statusmirror/internal/version"
)

const endpoint = "/api_jsonrpc.php"

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Config holds Zabbix client settings.
type Config struct {
	// Server is the Zabbix frontend URL, e.g. https://zabbix.example.com.
	Server   string
	User     string
	Password string

	// BasicAuth also sends the credentials as HTTP basic auth,
	// for frontends behind an authenticating proxy.
	BasicAuth bool

	InsecureSkipVerify bool
	Timeout            time.Duration

	// RateLimit is the maximum number of requests per second. Zero disables limiting.
	RateLimit float64
}

// Client talks to the Zabbix JSON-RPC API.
// It logs in lazily and re-authenticates once when the session expires.
// It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	user     string
	password string
	nextID   atomic.Int64

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Zabbix client. No request is made until the first call.
func New(cfg Config, opts ...Option) *Client {
	httpClient := resty.New().
		SetHostURL(strings.TrimRight(cfg.Server, "/")).
		SetHeader("Content-Type", "application/json-rpc").
		SetHeader("User-Agent", version.UserAgent())
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // operator opt-in
	}
	if cfg.BasicAuth {
		httpClient.SetBasicAuth(cfg.User, cfg.Password)
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	c := &Client{
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   slog.Default(),
		user:     cfg.User,
		password: cfg.Password,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
	Auth    string `json:"auth,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Version returns the API version. It does not require authentication.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	if err := c.call(ctx, "apiinfo.version", map[string]any{}, "", &v); err != nil {
		return "", err
	}
	return v, nil
}

// Login authenticates and stores the session token. The user name is sent
// as "user", which every release exposing IT services and SLA reports accepts.
func (c *Client) Login(ctx context.Context) error {
	var token string
	params := map[string]any{
		"user":     c.user,
		"password": c.password,
	}
	if err := c.call(ctx, "user.login", params, "", &token); err != nil {
		return fmt.Errorf("failed to log in to zabbix; %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.logger.Debug("zabbix session established", "user", c.user)
	return nil
}

// Trigger returns the trigger with the given id, with its description expanded.
func (c *Client) Trigger(ctx context.Context, id string) (Trigger, error) {
	var triggers []triggerWire
	params := map[string]any{
		"triggerids":        []string{id},
		"output":            "extend",
		"expandDescription": true,
		"expandComment":     true,
	}
	if err := c.authedCall(ctx, "trigger.get", params, &triggers); err != nil {
		return Trigger{}, err
	}
	if len(triggers) == 0 {
		return Trigger{}, fmt.Errorf("trigger %s; %w", id, ErrNotFound)
	}
	return triggers[0].toTrigger(), nil
}

// LastEvent returns the latest problem event of a trigger.
// A trigger without problem events yields an unacknowledged empty Event.
func (c *Client) LastEvent(ctx context.Context, triggerID string) (Event, error) {
	var events []eventWire
	params := map[string]any{
		"objectids":           []string{triggerID},
		"object":              0,
		"value":               1,
		"output":              "extend",
		"select_acknowledges": "extend",
		"sortfield":           []string{"clock", "eventid"},
		"sortorder":           "DESC",
		"limit":               1,
	}
	if err := c.authedCall(ctx, "event.get", params, &events); err != nil {
		return Event{}, err
	}
	if len(events) == 0 {
		return Event{}, nil
	}
	return events[0].toEvent(), nil
}

// ServiceByName returns the IT service with the exact name.
func (c *Client) ServiceByName(ctx context.Context, name string) (Service, error) {
	var services []serviceWire
	params := map[string]any{
		"output":             "extend",
		"selectDependencies": "extend",
		"filter":             map[string]any{"name": name},
	}
	if err := c.authedCall(ctx, "service.get", params, &services); err != nil {
		return Service{}, err
	}
	if len(services) == 0 {
		return Service{}, fmt.Errorf("service %q; %w", name, ErrNotFound)
	}
	return services[0].toService(), nil
}

// ServiceTree returns the top-level services below root, each with its
// direct children resolved. The root itself is not part of the result.
// An empty root returns every service.
func (c *Client) ServiceTree(ctx context.Context, root string) ([]Service, error) {
	var top []serviceWire
	if root != "" {
		rootSvc, err := c.servicesBy(ctx, map[string]any{"filter": map[string]any{"name": root}})
		if err != nil {
			return nil, err
		}
		if len(rootSvc) == 0 {
			return nil, fmt.Errorf("root service %q; %w", root, ErrNotFound)
		}
		ids := rootSvc[0].dependencyIDs()
		if len(ids) == 0 {
			return nil, nil
		}
		top, err = c.servicesBy(ctx, map[string]any{"serviceids": ids})
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		top, err = c.servicesBy(ctx, map[string]any{})
		if err != nil {
			return nil, err
		}
	}

	tree := make([]Service, 0, len(top))
	for _, w := range top {
		svc := w.toService()
		if ids := w.dependencyIDs(); len(ids) > 0 {
			children, err := c.servicesBy(ctx, map[string]any{"serviceids": ids})
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				svc.Children = append(svc.Children, child.toService())
			}
		}
		tree = append(tree, svc)
	}
	return tree, nil
}

func (c *Client) servicesBy(ctx context.Context, params map[string]any) ([]serviceWire, error) {
	params["output"] = "extend"
	params["selectDependencies"] = "extend"
	var services []serviceWire
	if err := c.authedCall(ctx, "service.get", params, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// SLA returns the availability of each service over [from, to).
func (c *Client) SLA(ctx context.Context, serviceIDs []string, from, to time.Time) (map[string]SLA, error) {
	var raw map[string]slaWire
	params := map[string]any{
		"serviceids": serviceIDs,
		"intervals": []map[string]int64{
			{"from": from.Unix(), "to": to.Unix()},
		},
	}
	if err := c.authedCall(ctx, "service.getsla", params, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]SLA, len(raw))
	for id, w := range raw {
		if len(w.SLA) == 0 {
			continue
		}
		iv := w.SLA[0]
		out[id] = SLA{
			ServiceID: id,
			From:      time.Unix(int64(iv.From), 0),
			To:        time.Unix(int64(iv.To), 0),
			Value:     float64(iv.SLA),
		}
	}
	return out, nil
}

// authedCall performs an authenticated call, logging in first when needed
// and once more if the session was invalidated.
func (c *Client) authedCall(ctx context.Context, method string, params, out any) error {
	token, err := c.sessionToken(ctx)
	if err != nil {
		return err
	}

	err = c.call(ctx, method, params, token, out)
	if !isSessionExpired(err) {
		return err
	}

	c.logger.Info("zabbix session expired; logging in again")
	if err := c.Login(ctx); err != nil {
		return err
	}
	token, err = c.sessionToken(ctx)
	if err != nil {
		return err
	}
	return c.call(ctx, method, params, token, out)
}

func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	if err := c.Login(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func isSessionExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code == 0 {
		return false
	}
	data := strings.ToLower(apiErr.Data + " " + apiErr.Message)
	return strings.Contains(data, "re-login") || strings.Contains(data, "not authori")
}

func (c *Client) call(ctx context.Context, method string, params any, token string, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordCollaboratorRequest("zabbix", method, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed; %w", err)
	}

	body := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
		Auth:    token,
	}

	c.logger.Debug("zabbix request", "method", method)

	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(endpoint)
	if err != nil {
		return &APIError{Method: method, Message: err.Error()}
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{
			Method:     method,
			StatusCode: resp.StatusCode(),
			Message:    strings.TrimSpace(string(resp.Body())),
		}
	}

	var rpc rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpc); err != nil {
		return &APIError{Method: method, StatusCode: resp.StatusCode(), Message: fmt.Sprintf("failed to decode response; %v", err)}
	}
	if rpc.Error != nil {
		return &APIError{
			Method:  method,
			Code:    rpc.Error.Code,
			Message: rpc.Error.Message,
			Data:    rpc.Error.Data,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpc.Result, out); err != nil {
		return &APIError{Method: method, Message: fmt.Sprintf("failed to decode result; %v", err)}
	}
	return nil
}

// flexString decodes JSON strings and numbers alike; Zabbix versions differ.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(raw)
	return nil
}

func (s flexString) int() int {
	n, _ := strconv.Atoi(string(s))
	return n
}

func (s flexString) float() float64 {
	f, _ := strconv.ParseFloat(string(s), 64)
	return f
}

type triggerWire struct {
	TriggerID   flexString `json:"triggerid"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Comments    string     `json:"comments"`
	Priority    flexString `json:"priority"`
	Value       flexString `json:"value"`
}

func (w triggerWire) toTrigger() Trigger {
	return Trigger{
		ID:          string(w.TriggerID),
		Description: w.Description,
		URL:         w.URL,
		Comments:    w.Comments,
		Priority:    w.Priority.int(),
		Active:      w.Value == "1",
	}
}

type ackWire struct {
	Clock    flexString `json:"clock"`
	Message  string     `json:"message"`
	Name     string     `json:"name"`
	Surname  string     `json:"surname"`
	Alias    string     `json:"alias"`
	Username string     `json:"username"`
}

func (w ackWire) author() string {
	if full := strings.TrimSpace(w.Name + " " + w.Surname); full != "" {
		return full
	}
	if w.Username != "" {
		return w.Username
	}
	return w.Alias
}

type eventWire struct {
	EventID      flexString `json:"eventid"`
	Acknowledged flexString `json:"acknowledged"`
	Acknowledges []ackWire  `json:"acknowledges"`
}

func (w eventWire) toEvent() Event {
	ev := Event{
		ID:           string(w.EventID),
		Acknowledged: w.Acknowledged == "1",
	}
	for _, a := range w.Acknowledges {
		ev.Acknowledgements = append(ev.Acknowledgements, Acknowledgement{
			Time:    time.Unix(int64(a.Clock.int()), 0),
			Author:  a.author(),
			Message: a.Message,
		})
	}
	sort.SliceStable(ev.Acknowledgements, func(i, j int) bool {
		return ev.Acknowledgements[i].Time.Before(ev.Acknowledgements[j].Time)
	})
	return ev
}

type dependencyWire struct {
	ServiceID flexString `json:"serviceid"`
}

type serviceWire struct {
	ServiceID    flexString       `json:"serviceid"`
	Name         string           `json:"name"`
	TriggerID    flexString       `json:"triggerid"`
	ShowSLA      flexString       `json:"showsla"`
	Dependencies []dependencyWire `json:"dependencies"`
}

func (w serviceWire) toService() Service {
	trigger := string(w.TriggerID)
	if trigger == "" {
		trigger = NoTrigger
	}
	return Service{
		ID:        string(w.ServiceID),
		Name:      w.Name,
		TriggerID: trigger,
		ShowSLA:   w.ShowSLA == "1",
	}
}

func (w serviceWire) dependencyIDs() []string {
	ids := make([]string, 0, len(w.Dependencies))
	for _, d := range w.Dependencies {
		ids = append(ids, string(d.ServiceID))
	}
	return ids
}

type slaInterval struct {
	From flexNumber `json:"from"`
	To   flexNumber `json:"to"`
	SLA  flexNumber `json:"sla"`
}

type slaWire struct {
	SLA []slaInterval `json:"sla"`
}

// flexNumber decodes JSON numbers and numeric strings.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = flexNumber(s.float())
	return nil
}
