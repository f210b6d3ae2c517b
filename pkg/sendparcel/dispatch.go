package sendparcel

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const formContentType = "application/x-www-form-urlencoded"

// Caller invokes a single remote operation.
// Its URL is resolved once, when the caller is built.
type Caller struct {
	client   *Client
	endpoint Endpoint
	url      string
}

// Caller builds the invoker for an endpoint.
func (c *Client) Caller(e Endpoint) *Caller {
	return &Caller{
		client:   c,
		endpoint: e,
		url:      c.baseURL + e.Path,
	}
}

// Endpoint returns the operation this caller invokes.
func (c *Caller) Endpoint() Endpoint {
	return c.endpoint
}

// URL returns the absolute URL the caller sends to.
func (c *Caller) URL() string {
	return c.url
}

// CallOption adjusts the outgoing request before the dispatcher applies
// its own headers, so Content-Type cannot be overridden.
type CallOption func(*resty.Request)

// WithHeader sets an extra request header.
func WithHeader(key, value string) CallOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

// WithQueryParam adds a query string parameter.
func WithQueryParam(key, value string) CallOption {
	return func(r *resty.Request) {
		r.SetQueryParam(key, value)
	}
}

// Call performs the request and returns the decoded response body.
//
// For POST, PUT and PATCH the payload is form-encoded together with the
// API key. GET and DELETE carry no body and therefore no API key.
// Transport errors are returned exactly as the transport produced them.
// A response with status false is returned as-is, without error.
func (c *Caller) Call(ctx context.Context, payload any, opts ...CallOption) (*Envelope, error) {
	op := c.endpoint.Path
	method := c.endpoint.Method
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := c.client.tracer.Start(ctx, "sendparcel."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("sendparcel.operation", op),
			attribute.String("http.request.method", method),
			attribute.Bool("sendparcel.sandbox", c.client.sandbox),
			attribute.String("sendparcel.call_id", callID),
		),
	)
	defer span.End()

	log := c.client.logger.Ctx(ctx)

	req := c.client.http.R().SetContext(ctx)
	req.SetHeader("User-Agent", c.client.userAgent)
	for _, opt := range opts {
		opt(req)
	}
	req.SetHeader("Content-Type", formContentType)

	switch method {
	case http.MethodGet, http.MethodDelete:
		// no body
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		params, err := ToParams(payload)
		if err != nil {
			c.fail(span, op, "encode", err)
			return nil, err
		}
		body, err := EncodeForm(params, c.client.apiKey)
		if err != nil {
			c.fail(span, op, "encode", err)
			return nil, err
		}
		req.SetBody(body)
	default:
		err := &unsupportedMethodError{method: method}
		c.fail(span, op, "request", err)
		return nil, err
	}

	resp, err := req.Execute(method, c.url)
	duration := time.Since(start)
	if err != nil {
		log.Error("SendParcel transport error",
			zap.String("operation", op),
			zap.String("call_id", callID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		c.fail(span, op, "transport", err)
		c.record(op, method, "error", duration)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))

	if !resp.IsSuccess() {
		apiErr := &APIError{
			Operation:  op,
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body(), resp.Status()),
			Body:       resp.Body(),
		}
		log.Warn("SendParcel HTTP error",
			zap.String("operation", op),
			zap.String("call_id", callID),
			zap.Int("status_code", apiErr.StatusCode),
			zap.Duration("duration", duration),
		)
		c.fail(span, op, "http", apiErr)
		c.record(op, method, "error", duration)
		return nil, apiErr
	}

	env := &Envelope{}
	if err := json.Unmarshal(resp.Body(), env); err != nil {
		decErr := &DecodeError{Operation: op, Body: resp.Body(), Err: err}
		c.fail(span, op, "decode", decErr)
		c.record(op, method, "error", duration)
		return nil, decErr
	}
	env.Raw = json.RawMessage(resp.Body())

	status := "ok"
	if !env.Status {
		status = "rejected"
	}
	span.SetAttributes(attribute.Bool("sendparcel.status", env.Status))
	log.Debug("SendParcel call completed",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("call_id", callID),
		zap.Bool("status", env.Status),
		zap.Duration("duration", duration),
	)
	c.record(op, method, status, duration)

	return env, nil
}

func (c *Caller) fail(span trace.Span, op, errorType string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if c.client.metrics != nil {
		c.client.metrics.RecordError(op, errorType)
	}
}

func (c *Caller) record(op, method, status string, d time.Duration) {
	if c.client.metrics != nil {
		c.client.metrics.RecordRequest(op, method, status, d.Seconds())
	}
}

// errorMessage extracts a message from a non-2xx body, falling back to
// the status line.
func errorMessage(body []byte, status string) string {
	var simple struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &simple); err == nil {
		if simple.Message != "" {
			return simple.Message
		}
		if simple.Error != "" {
			return simple.Error
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 512 {
		return s
	}
	return status
}

type unsupportedMethodError struct {
	method string
}

func (e *unsupportedMethodError) Error() string {
	return ErrUnsupportedMethod.Error() + ": " + e.method
}

func (e *unsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}
