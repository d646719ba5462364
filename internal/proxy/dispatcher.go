package proxy

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/edge-gateway/internal/auth"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

// HeaderRequestID is the correlation header passed through to upstreams.
const HeaderRequestID = "X-Request-Id"

// Route maps a gateway path prefix to an upstream base URL. The rewrite is a
// pure prefix substitution applied exactly once, at dispatch time.
type Route struct {
	Prefix              string
	Upstream            string
	RewritePrefix       string
	RequiredPermissions []auth.Permission
}

// RewritePath strips the route prefix and substitutes the replacement.
// A path outside the prefix is passed through untouched.
func (r Route) RewritePath(path string) string {
	if r.Prefix != "" && strings.HasPrefix(path, r.Prefix) {
		return r.RewritePrefix + strings.TrimPrefix(path, r.Prefix)
	}
	return path
}

// Dispatcher forwards authorized requests to upstream services, streaming
// both bodies. It never buffers a full upstream response.
type Dispatcher struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewDispatcher builds a dispatcher with the given upstream timeout.
func NewDispatcher(timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client: &fasthttp.Client{
			StreamResponseBody:  true,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Handler returns a fiber handler forwarding every request on the route.
// AuthMiddleware and RequirePermission must already have run.
func (d *Dispatcher) Handler(route Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return d.forward(route, c)
	}
}

func (d *Dispatcher) forward(route Route, c *fiber.Ctx) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	target := route.Upstream + route.RewritePath(c.Path())
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		target += "?" + qs
	}
	req.Header.SetMethod(c.Method())
	req.SetRequestURI(target)

	// Whitelisted headers travel verbatim; everything else is left to the
	// transport defaults.
	if authz := c.Get(fiber.HeaderAuthorization); authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	if reqID := c.Get(HeaderRequestID); reqID != "" {
		req.Header.Set(HeaderRequestID, reqID)
	}
	if ct := c.Get(fiber.HeaderContentType); ct != "" {
		req.Header.SetContentType(ct)
	}

	if length := c.Request().Header.ContentLength(); length != 0 {
		req.SetBodyStream(c.Context().RequestBodyStream(), length)
	}

	if err := d.client.Do(req, resp); err != nil {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
		d.logger.Warn("upstream request failed",
			zap.String("upstream", route.Upstream),
			zap.String("path", c.Path()),
			zap.Error(err))
		return mapUpstreamError(err)
	}
	fasthttp.ReleaseRequest(req)

	// Upstream status and headers pass through unchanged; the body is
	// streamed so large payloads never sit in gateway memory.
	resp.Header.CopyTo(&c.Response().Header)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer fasthttp.ReleaseResponse(resp)
		if err := resp.BodyWriteTo(w); err != nil {
			d.logger.Warn("upstream body stream interrupted", zap.Error(err))
		}
	})
	return nil
}

func mapUpstreamError(err error) error {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return apperrors.NewUpstreamTimeout(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewUpstreamTimeout(err)
	}
	return apperrors.NewUpstreamUnavailable(err)
}
