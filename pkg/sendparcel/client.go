// Package sendparcel provides a client for the SendParcel (Pos Laju) REST API.
package sendparcel

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// SandboxBaseURL is the root of the SendParcel test environment.
	SandboxBaseURL = "http://sendparcel-test.ap-southeast-1.elasticbeanstalk.com/apiv1/"

	// ProductionBaseURL is the root of the live SendParcel API.
	ProductionBaseURL = "https://sendparcel.poslaju.com.my/apiv1/"

	defaultUserAgent = "sendparcel-go/1.0"
	tracerName       = "github.com/tournevent/sendparcel/pkg/sendparcel"
)

// Config holds SendParcel client configuration.
type Config struct {
	APIKey  string
	Sandbox bool          // When true, requests go to the test environment
	Timeout time.Duration // Transport timeout, zero means none
}

// BaseURL returns the API root for the selected environment.
func BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

// Client is the SendParcel API client.
// It is safe for concurrent use; the only state shared between calls
// is the configuration captured in New.
type Client struct {
	apiKey    string
	sandbox   bool
	baseURL   string
	userAgent string
	http      *resty.Client
	logger    *otelzap.Logger
	tracer    trace.Tracer
	metrics   Recorder

	me                  *Caller
	getPostcodeDetails  *Caller
	checkPrice          *Caller
	checkPriceBulk      *Caller
	getParcelSizes      *Caller
	getContentTypes     *Caller
	createShipment      *Caller
	getCartItems        *Caller
	checkout            *Caller
	getShipmentStatuses *Caller
	getShipments        *Caller
	getShipmentHistory  *Caller
	createBulkAWB       *Caller
	getBulkTrackingNo   *Caller
}

// Recorder receives per-call measurements.
type Recorder interface {
	RecordRequest(operation, method, status string, duration float64)
	RecordError(operation, errorType string)
}

// Option configures the client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	metrics    Recorder
	userAgent  string
}

// WithHTTPClient sets the HTTP client used as transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithMetrics sets the recorder for per-call metrics.
func WithMetrics(r Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// New creates a new SendParcel client.
// A nil logger discards logs and a nil tracer uses the global tracer provider.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	o := options{userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}

	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		hc := *o.httpClient
		rc = resty.NewWithClient(&hc)
	} else {
		rc = resty.New()
	}
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	rc.SetLogger(logger.Logger.Sugar())

	c := &Client{
		apiKey:    cfg.APIKey,
		sandbox:   cfg.Sandbox,
		baseURL:   BaseURL(cfg.Sandbox),
		userAgent: o.userAgent,
		http:      rc,
		logger:    logger,
		tracer:    tracer,
		metrics:   o.metrics,
	}

	c.me = c.Caller(EndpointMe)
	c.getPostcodeDetails = c.Caller(EndpointGetPostcodeDetails)
	c.checkPrice = c.Caller(EndpointCheckPrice)
	c.checkPriceBulk = c.Caller(EndpointCheckPriceBulk)
	c.getParcelSizes = c.Caller(EndpointGetParcelSizes)
	c.getContentTypes = c.Caller(EndpointGetContentTypes)
	c.createShipment = c.Caller(EndpointCreateShipment)
	c.getCartItems = c.Caller(EndpointGetCartItems)
	c.checkout = c.Caller(EndpointCheckout)
	c.getShipmentStatuses = c.Caller(EndpointGetShipmentStatuses)
	c.getShipments = c.Caller(EndpointGetShipments)
	c.getShipmentHistory = c.Caller(EndpointGetShipmentHistory)
	c.createBulkAWB = c.Caller(EndpointCreateBulkAWB)
	c.getBulkTrackingNo = c.Caller(EndpointGetBulkTrackingNo)

	return c, nil
}

// Sandbox reports whether the client targets the test environment.
func (c *Client) Sandbox() bool {
	return c.sandbox
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}
