package blueprint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recorder collects events as "event:name" strings.
type recorder struct {
	events []string
}

func (r *recorder) add(event, name string) {
	r.events = append(r.events, event+":"+name)
}

func (r *recorder) reset() {
	r.events = nil
}

func (r *recorder) hooks() *FuncHooks {
	return &FuncHooks{
		InitializedFunc:       func(*Container) { r.add("initialized", "") },
		BeforeRegisterFunc:    func(name string, _ Recipe) { r.add("before_register", name) },
		AfterRegisterFunc:     func(name string, _ Recipe, _ error) { r.add("after_register", name) },
		BeforeResolveFunc:     func(name string) { r.add("before_resolve", name) },
		AfterResolveFunc:      func(name string, _ any, _ error) { r.add("after_resolve", name) },
		BeforeResolveTypeFunc: func(name string) { r.add("before_resolve_type", name) },
		AfterResolveTypeFunc:  func(name string, _ *Type, _ error) { r.add("after_resolve_type", name) },
		BeforeBuildUpFunc:     func(name string, _ any) { r.add("before_build_up", name) },
		AfterBuildUpFunc:      func(name string, _ any, _ error) { r.add("after_build_up", name) },
		BeforeClearFunc:       func(name string) { r.add("before_clear", name) },
		AfterClearFunc:        func(name string) { r.add("after_clear", name) },
	}
}

func TestHooks_InitializedAfterEager(t *testing.T) {
	rec := &recorder{}

	_, _, err := newPersonContainer(WithHooks(rec.hooks()))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"before_resolve:jens_nl",
		"before_build_up:jens_nl",
		"after_build_up:jens_nl",
		"after_resolve:jens_nl",
		"initialized:",
	}, rec.events)
}

func TestHooks_ResolveOrder(t *testing.T) {
	rec := &recorder{}

	c, _, err := newPersonContainer(WithHooks(rec.hooks()))
	require.NoError(t, err)
	rec.reset()

	_, err = c.Resolve("jens")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"before_resolve:jens",
		"before_build_up:jens",
		"before_resolve:jessica",
		"before_build_up:jessica",
		"after_build_up:jessica",
		"after_resolve:jessica",
		"after_build_up:jens",
		"after_resolve:jens",
	}, rec.events)

	// a cached singleton still reports the resolution
	rec.reset()

	_, err = c.Resolve("jens")
	require.NoError(t, err)
	assert.Equal(t, []string{"before_resolve:jens", "after_resolve:jens"}, rec.events)
}

func TestHooks_AfterResolveOnFailure(t *testing.T) {
	var (
		gotName string
		gotErr  error
	)

	c, _, err := newPersonContainer(WithHooks(&FuncHooks{
		AfterResolveFunc: func(name string, _ any, err error) {
			gotName, gotErr = name, err
		},
	}))
	require.NoError(t, err)

	_, err = c.Resolve("nope")
	require.Error(t, err)

	assert.Equal(t, "nope", gotName)
	assert.ErrorIs(t, gotErr, ErrMissingConfigurationSentinel)
}

func TestHooks_OtherOperations(t *testing.T) {
	rec := &recorder{}

	c, f, err := newPersonContainer(WithHooks(rec.hooks()))
	require.NoError(t, err)
	rec.reset()

	_, err = c.ResolveType("jessica")
	require.NoError(t, err)

	require.NoError(t, c.Register("extra", NewRecipe(f.counterType), false))

	_, err = c.BuildUp("jens", newPerson("A", "B", 1), map[string]any{"loves": nil})
	require.NoError(t, err)

	c.Clear()
	c.Clear("jessica", "jens")

	assert.Equal(t, []string{
		"before_resolve_type:jessica",
		"after_resolve_type:jessica",
		"before_register:extra",
		"after_register:extra",
		"before_build_up:jens",
		"after_build_up:jens",
		"before_clear:",
		"after_clear:",
		"before_clear:jessica",
		"after_clear:jessica",
		"before_clear:jens",
		"after_clear:jens",
	}, rec.events)
}

func TestHooks_EagerRegister(t *testing.T) {
	rec := &recorder{}

	c, f, err := newPersonContainer(WithHooks(rec.hooks()))
	require.NoError(t, err)
	rec.reset()

	require.NoError(t, c.Register("eager", NewRecipe(f.counterType, Eager()), false))

	assert.Equal(t, []string{
		"before_register:eager",
		"before_resolve:eager",
		"before_build_up:eager",
		"after_build_up:eager",
		"after_resolve:eager",
		"after_register:eager",
	}, rec.events)
}

type resolveOnly struct {
	NopHooks
	names *[]string
}

func (h resolveOnly) AfterResolve(name string, _ any, _ error) {
	*h.names = append(*h.names, name)
}

func TestNopHooks_Embedding(t *testing.T) {
	var names []string

	c, _, err := newPersonContainer(WithHooks(resolveOnly{names: &names}))
	require.NoError(t, err)

	_, err = c.Resolve("jessica")
	require.NoError(t, err)

	c.Clear()

	assert.Equal(t, []string{"jens_nl", "jessica"}, names)
}

func TestUse_ChildInheritsHooks(t *testing.T) {
	rec := &recorder{}

	c, f, err := newPersonContainer()
	require.NoError(t, err)

	c.Use(rec.hooks())

	child, err := c.CreateChildContainer(Configuration{"local": NewRecipe(f.counterType)})
	require.NoError(t, err)
	assert.Equal(t, []string{"initialized:"}, rec.events)

	rec.reset()

	_, err = child.Resolve("local")
	require.NoError(t, err)
	assert.Contains(t, rec.events, "after_resolve:local")
}

func TestLoggingHooks(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	c, _, err := newPersonContainer(WithHooks(NewLoggingHooks(zap.New(core))))
	require.NoError(t, err)

	initialized := logs.FilterMessage("container initialized").All()
	require.Len(t, initialized, 1)
	assert.Equal(t, zapcore.InfoLevel, initialized[0].Level)
	assert.Equal(t, "blueprint", initialized[0].LoggerName)
	assert.Equal(t, c.ID(), initialized[0].ContextMap()["container"])

	_, err = c.Resolve("jessica")
	require.NoError(t, err)

	resolved := logs.FilterMessage("resolve").FilterField(zap.String("recipe", "jessica")).All()
	require.Len(t, resolved, 1)
	assert.Equal(t, zapcore.DebugLevel, resolved[0].Level)
	assert.Contains(t, resolved[0].ContextMap(), "duration")

	_, err = c.Resolve("nope")
	require.Error(t, err)

	failed := logs.FilterMessage("resolve failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "nope", failed[0].ContextMap()["recipe"])
	assert.Contains(t, failed[0].ContextMap(), "error")
}

func TestLoggingHooks_NilLogger(t *testing.T) {
	c, _, err := newPersonContainer(WithHooks(NewLoggingHooks(nil)))
	require.NoError(t, err)

	_, err = c.Resolve("jessica")
	assert.NoError(t, err)
}

func findSpan(spans []sdktrace.ReadOnlySpan, name, recipe string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() != name {
			continue
		}

		for _, kv := range s.Attributes() {
			if kv.Key == attrRecipe && kv.Value.AsString() == recipe {
				return s
			}
		}
	}

	return nil
}

func newTracedContainer(t *testing.T) (*Container, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	settings := personSettings()

	c, err := New(Configuration{
		"jens":    settings["jens"],
		"jessica": settings["jessica"],
	}, WithRegistry(newFixture().registry), WithHooks(NewTracingHooks(context.Background(), tp.Tracer("test"))))
	require.NoError(t, err)

	return c, sr
}

func TestTracingHooks_NestedSpans(t *testing.T) {
	c, sr := newTracedContainer(t)

	_, err := c.Resolve("jens")
	require.NoError(t, err)

	spans := sr.Ended()

	outer := findSpan(spans, "blueprint.resolve", "jens")
	require.NotNil(t, outer)
	assert.False(t, outer.Parent().IsValid())

	buildUp := findSpan(spans, "blueprint.build_up", "jens")
	require.NotNil(t, buildUp)
	assert.Equal(t, outer.SpanContext().SpanID(), buildUp.Parent().SpanID())

	inner := findSpan(spans, "blueprint.resolve", "jessica")
	require.NotNil(t, inner)
	assert.Equal(t, buildUp.SpanContext().SpanID(), inner.Parent().SpanID())
	assert.Equal(t, outer.SpanContext().TraceID(), inner.SpanContext().TraceID())

	var initialized int
	for _, s := range spans {
		if s.Name() == "blueprint.initialized" {
			initialized++
		}
	}

	assert.Equal(t, 1, initialized)
}

func TestTracingHooks_ErrorStatus(t *testing.T) {
	c, sr := newTracedContainer(t)

	_, err := c.Resolve("nope")
	require.Error(t, err)

	span := findSpan(sr.Ended(), "blueprint.resolve", "nope")
	require.NotNil(t, span)

	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String(attrErrorCode, CodeMissingConfiguration))
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestMetricsHooks(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	hooks, err := NewMetricsHooks(mp.Meter("test"))
	require.NoError(t, err)

	settings := personSettings()

	c, err := New(Configuration{"jessica": settings["jessica"]},
		WithRegistry(newFixture().registry), WithHooks(hooks))
	require.NoError(t, err)

	for range 2 {
		_, err = c.Resolve("jessica")
		require.NoError(t, err)
	}

	_, err = c.Resolve("nope")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	metrics := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			metrics[m.Name] = m
		}
	}

	ops, ok := metrics["blueprint.operation.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), sumWhere(ops.DataPoints, attrRecipe, "jessica", attrStatus, "ok", attrOperation, "resolve"))
	assert.Equal(t, int64(1), sumWhere(ops.DataPoints, attrRecipe, "nope", attrStatus, "error"))

	errs, ok := metrics["blueprint.error.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), sumWhere(errs.DataPoints, attrErrorCode, CodeMissingConfiguration))

	duration, ok := metrics["blueprint.resolve.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(3), count)

	containers, ok := metrics["blueprint.container.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), sumWhere(containers.DataPoints))
}

// sumWhere adds the values of data points carrying every key/value pair.
func sumWhere(points []metricdata.DataPoint[int64], kv ...string) int64 {
	var total int64

	for _, dp := range points {
		match := true

		for i := 0; i+1 < len(kv); i += 2 {
			v, ok := dp.Attributes.Value(attribute.Key(kv[i]))
			if !ok || v.AsString() != kv[i+1] {
				match = false
				break
			}
		}

		if match {
			total += dp.Value
		}
	}

	return total
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeCircularDependency, errorCode(ErrCircularDependency([]string{"a", "a"})))
	assert.Equal(t, "unknown", errorCode(assert.AnError))
}
