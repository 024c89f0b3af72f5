package blueprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrRecipe    = "blueprint.recipe"
	attrOperation = "blueprint.operation"
	attrStatus    = "blueprint.status"
	attrErrorCode = "blueprint.error.code"
)

// TracingHooks records one span per container operation. Operations nested
// inside another (a relation resolved while building its dependent) become
// child spans.
type TracingHooks struct {
	tracer trace.Tracer
	root   context.Context
	stack  []context.Context
}

// NewTracingHooks creates tracing hooks starting spans under ctx.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(...)
//	c, err := blueprint.New(cfg, blueprint.WithHooks(
//	    blueprint.NewTracingHooks(context.Background(), tp.Tracer("blueprint")),
//	))
func NewTracingHooks(ctx context.Context, tracer trace.Tracer) *TracingHooks {
	if ctx == nil {
		ctx = context.Background()
	}

	return &TracingHooks{tracer: tracer, root: ctx}
}

func (h *TracingHooks) start(op, name string) {
	parent := h.root
	if n := len(h.stack); n > 0 {
		parent = h.stack[n-1]
	}

	ctx, _ := h.tracer.Start(parent, "blueprint."+op, trace.WithAttributes(
		attribute.String(attrRecipe, name),
		attribute.String(attrOperation, op),
	))

	h.stack = append(h.stack, ctx)
}

func (h *TracingHooks) end(err error, attrs ...attribute.KeyValue) {
	n := len(h.stack)
	if n == 0 {
		return
	}

	span := trace.SpanFromContext(h.stack[n-1])
	h.stack = h.stack[:n-1]

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(attrErrorCode, errorCode(err)))
	}

	span.End()
}

// Initialized implements EventHooks.
func (h *TracingHooks) Initialized(c *Container) {
	_, span := h.tracer.Start(h.root, "blueprint.initialized", trace.WithAttributes(
		attribute.String("blueprint.container", c.ID()),
	))
	span.End()
}

// BeforeRegister implements EventHooks.
func (h *TracingHooks) BeforeRegister(name string, _ Recipe) { h.start("register", name) }

// AfterRegister implements EventHooks.
func (h *TracingHooks) AfterRegister(_ string, r Recipe, err error) {
	h.end(err, attribute.Bool("blueprint.singleton", r.Singleton), attribute.Bool("blueprint.lazy", r.Lazy()))
}

// BeforeResolve implements EventHooks.
func (h *TracingHooks) BeforeResolve(name string) { h.start("resolve", name) }

// AfterResolve implements EventHooks.
func (h *TracingHooks) AfterResolve(_ string, instance any, err error) {
	h.end(err, attribute.String("blueprint.instance", typeName(instance)))
}

// BeforeResolveType implements EventHooks.
func (h *TracingHooks) BeforeResolveType(name string) { h.start("resolve_type", name) }

// AfterResolveType implements EventHooks.
func (h *TracingHooks) AfterResolveType(_ string, t *Type, err error) {
	h.end(err, attribute.String("blueprint.type", t.Name()))
}

// BeforeBuildUp implements EventHooks.
func (h *TracingHooks) BeforeBuildUp(name string, _ any) { h.start("build_up", name) }

// AfterBuildUp implements EventHooks.
func (h *TracingHooks) AfterBuildUp(_ string, _ any, err error) { h.end(err) }

// BeforeClear implements EventHooks.
func (h *TracingHooks) BeforeClear(name string) { h.start("clear", name) }

// AfterClear implements EventHooks.
func (h *TracingHooks) AfterClear(string) { h.end(nil) }

// MetricsHooks counts container operations and records resolution
// latency with OpenTelemetry instruments.
type MetricsHooks struct {
	operations metric.Int64Counter
	errors     metric.Int64Counter
	duration   metric.Float64Histogram
	containers metric.Int64UpDownCounter
	starts     []time.Time
}

// NewMetricsHooks creates the instruments on meter.
func NewMetricsHooks(meter metric.Meter) (*MetricsHooks, error) {
	operations, err := meter.Int64Counter("blueprint.operation.total",
		metric.WithDescription("Total number of container operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blueprint.operation.total counter: %w", err)
	}

	errs, err := meter.Int64Counter("blueprint.error.total",
		metric.WithDescription("Total failed container operations by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blueprint.error.total counter: %w", err)
	}

	duration, err := meter.Float64Histogram("blueprint.resolve.duration",
		metric.WithDescription("Duration of resolutions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blueprint.resolve.duration histogram: %w", err)
	}

	containers, err := meter.Int64UpDownCounter("blueprint.container.total",
		metric.WithDescription("Number of initialized containers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blueprint.container.total counter: %w", err)
	}

	return &MetricsHooks{
		operations: operations,
		errors:     errs,
		duration:   duration,
		containers: containers,
	}, nil
}

func (h *MetricsHooks) record(op, name string, err error) {
	ctx := context.Background()

	status := "ok"
	if err != nil {
		status = "error"
		h.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOperation, op),
			attribute.String(attrErrorCode, errorCode(err)),
		))
	}

	h.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, op),
		attribute.String(attrRecipe, name),
		attribute.String(attrStatus, status),
	))
}

// Initialized implements EventHooks.
func (h *MetricsHooks) Initialized(*Container) {
	h.containers.Add(context.Background(), 1)
}

// BeforeRegister implements EventHooks.
func (h *MetricsHooks) BeforeRegister(string, Recipe) {}

// AfterRegister implements EventHooks.
func (h *MetricsHooks) AfterRegister(name string, _ Recipe, err error) {
	h.record("register", name, err)
}

// BeforeResolve implements EventHooks.
func (h *MetricsHooks) BeforeResolve(string) {
	h.starts = append(h.starts, time.Now())
}

// AfterResolve implements EventHooks.
func (h *MetricsHooks) AfterResolve(name string, _ any, err error) {
	if n := len(h.starts); n > 0 {
		h.duration.Record(context.Background(), time.Since(h.starts[n-1]).Seconds(),
			metric.WithAttributes(attribute.String(attrRecipe, name)))
		h.starts = h.starts[:n-1]
	}

	h.record("resolve", name, err)
}

// BeforeResolveType implements EventHooks.
func (h *MetricsHooks) BeforeResolveType(string) {}

// AfterResolveType implements EventHooks.
func (h *MetricsHooks) AfterResolveType(name string, _ *Type, err error) {
	h.record("resolve_type", name, err)
}

// BeforeBuildUp implements EventHooks.
func (h *MetricsHooks) BeforeBuildUp(string, any) {}

// AfterBuildUp implements EventHooks.
func (h *MetricsHooks) AfterBuildUp(name string, _ any, err error) {
	h.record("build_up", name, err)
}

// BeforeClear implements EventHooks.
func (h *MetricsHooks) BeforeClear(string) {}

// AfterClear implements EventHooks.
func (h *MetricsHooks) AfterClear(name string) {
	h.record("clear", name, nil)
}

// errorCode returns the code of a container error, or "unknown".
func errorCode(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}

	return "unknown"
}
