// Package backend is the REST client for the upstream records service. It
// creates persons, role records and biometric enrollments, and reads lookup
// tables. Record-creating calls are never retried.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"registrar/internal/lookup"
	"registrar/internal/platform/metrics"
	"registrar/internal/registration/models"
	"registrar/pkg/domain"
	"registrar/pkg/requestcontext"
)

const (
	personPath = "/person"
	enrollPath = "/biometric/enroll"

	defaultLookupPath = "/lookups/%s"
	maxLookupPages    = 50
)

// defaultParentKeys names the column that links a hierarchical lookup row to
// its parent when the backend does not send a plain parent_id.
var defaultParentKeys = map[string]string{
	"provinces":      "region_id",
	"municipalities": "province_id",
	"barangays":      "municipality_id",
}

var labelKeys = []string{"desc", "label", "name", "description"}

// Client talks to the records backend.
type Client struct {
	write   *resty.Client
	read    *resty.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	lookupPath   string
	parentKeys   map[string]string
	serviceToken string
	retries      int
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLookupPath sets the fmt template used to build lookup URLs.
func WithLookupPath(template string) Option {
	return func(c *Client) {
		if template != "" {
			c.lookupPath = template
		}
	}
}

// WithServiceToken authenticates lookup reads made outside an operator request.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.serviceToken = token
	}
}

// WithLookupRetries sets how often a failed lookup GET is retried.
func WithLookupRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithParentKey registers the parent column for a hierarchical lookup.
func WithParentKey(lookupName, column string) Option {
	return func(c *Client) {
		c.parentKeys[lookupName] = column
	}
}

// New builds a client for baseURL. timeout bounds every single call.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		logger:     slog.Default(),
		lookupPath: defaultLookupPath,
		parentKeys: make(map[string]string, len(defaultParentKeys)),
		retries:    2,
	}
	for k, v := range defaultParentKeys {
		c.parentKeys[k] = v
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.write = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c.read = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(c.retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		}).
		SetHeader("Accept", "application/json")

	return c
}

// CreatePerson posts the person aggregate and returns the id the backend assigned.
func (c *Client) CreatePerson(ctx context.Context, person models.Person) (domain.PersonID, error) {
	const op = "create_person"
	resp, err := c.request(ctx, c.write).SetBody(person).Post(personPath)
	if err := c.check(ctx, op, resp, err); err != nil {
		return "", err
	}

	var created struct {
		ID domain.PersonID `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil || created.ID == "" {
		c.metrics.IncrementBackendCall(op, "domain")
		return "", &Error{Op: op, Kind: KindDomain, Status: resp.StatusCode(), Message: "The records service did not return a person id."}
	}
	return created.ID, nil
}

// CreateRoleRecord posts the role record to its collection. The record must
// already carry the person id.
func (c *Client) CreateRoleRecord(ctx context.Context, role models.RoleRecord) error {
	op := "create_" + role.Kind().String()
	resp, err := c.request(ctx, c.write).SetBody(role).Post(role.Kind().Path())
	return c.check(ctx, op, resp, err)
}

// EnrollBiometric posts one capture.
func (c *Client) EnrollBiometric(ctx context.Context, capture models.Capture) error {
	resp, err := c.request(ctx, c.write).SetBody(capture).Post(enrollPath)
	return c.check(ctx, "enroll_"+string(capture.Position), resp, err)
}

// FetchLookup reads every page of a lookup table.
func (c *Client) FetchLookup(ctx context.Context, name string) ([]lookup.Entity, error) {
	op := "lookup_" + name
	url := fmt.Sprintf(c.lookupPath, name)
	parentKey := c.parentKeys[name]

	var out []lookup.Entity
	for page := 0; url != "" && page < maxLookupPages; page++ {
		resp, err := c.request(ctx, c.read).Get(url)
		if err := c.check(ctx, op, resp, err); err != nil {
			return nil, err
		}
		rows, next, err := decodeLookupPage(resp.Body())
		if err != nil {
			c.metrics.IncrementBackendCall(op, "domain")
			return nil, &Error{Op: op, Kind: KindDomain, Status: resp.StatusCode(), Message: DefaultMessage, cause: err}
		}
		for _, row := range rows {
			entity, ok := decodeEntity(row, parentKey)
			if !ok {
				continue
			}
			out = append(out, entity)
		}
		url = next
	}
	return out, nil
}

func (c *Client) request(ctx context.Context, client *resty.Client) *resty.Request {
	req := client.R().SetContext(ctx)
	token := requestcontext.Token(ctx)
	if token == "" {
		token = c.serviceToken
	}
	if token != "" {
		req.SetHeader("Authorization", "Token "+token)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.SetHeader("X-Request-ID", requestID)
	}
	return req
}

func (c *Client) check(ctx context.Context, op string, resp *resty.Response, err error) error {
	if err != nil {
		c.metrics.IncrementBackendCall(op, string(KindTransport))
		c.logger.WarnContext(ctx, "backend call failed",
			"op", op,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return &Error{Op: op, Kind: KindTransport, Message: DefaultMessage, cause: err}
	}
	if resp.IsSuccess() {
		c.metrics.IncrementBackendCall(op, "ok")
		return nil
	}

	kind := KindDomain
	if resp.StatusCode() >= http.StatusInternalServerError {
		kind = KindTransport
	}
	c.metrics.IncrementBackendCall(op, string(kind))
	be := &Error{Op: op, Kind: kind, Status: resp.StatusCode(), Message: ExtractMessage(resp.Body())}
	c.logger.WarnContext(ctx, "backend rejected call",
		"op", op,
		"status", resp.StatusCode(),
		"message", be.Message,
		"request_id", requestcontext.RequestID(ctx),
	)
	return be
}
