package tracing

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty opens a client span per request and propagates the trace
// context to the remote service. Request and response bodies are not recorded
// since they carry API keys and page content.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), "http "+req.Method, trace.WithSpanKind(trace.SpanKindClient))
		req.SetContext(ctx)
		InjectHeaders(ctx, req.Header)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetName(fmt.Sprintf("http %s", res.Request.Method))
		span.SetAttributes(
			attribute.String("http.method", res.Request.Method),
			attribute.String("http.url", res.Request.URL),
			attribute.Int("http.status_code", res.StatusCode()),
		)
		if res.StatusCode() >= 500 {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()

		span.SetName(fmt.Sprintf("http %s", req.Method))
		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}
