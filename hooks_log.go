package blueprint

import (
	"time"

	"go.uber.org/zap"
)

// LoggingHooks logs every container operation with its duration.
// Successful operations log at debug level, failures at warn level.
type LoggingHooks struct {
	logger *zap.Logger
	starts []time.Time
}

// NewLoggingHooks creates logging hooks writing to logger.
func NewLoggingHooks(logger *zap.Logger) *LoggingHooks {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LoggingHooks{logger: logger.Named("blueprint")}
}

func (h *LoggingHooks) begin() {
	h.starts = append(h.starts, time.Now())
}

func (h *LoggingHooks) end(op, name string, err error, fields ...zap.Field) {
	var elapsed time.Duration
	if n := len(h.starts); n > 0 {
		elapsed = time.Since(h.starts[n-1])
		h.starts = h.starts[:n-1]
	}

	fields = append(fields, zap.String("recipe", name), zap.Duration("duration", elapsed))

	if err != nil {
		h.logger.Warn(op+" failed", append(fields, zap.Error(err))...)
		return
	}

	h.logger.Debug(op, fields...)
}

// Initialized implements EventHooks.
func (h *LoggingHooks) Initialized(c *Container) {
	h.logger.Info("container initialized",
		zap.String("container", c.ID()),
		zap.Int("recipes", len(c.store.names)),
		zap.Bool("child", c.parent != nil),
	)
}

// BeforeRegister implements EventHooks.
func (h *LoggingHooks) BeforeRegister(string, Recipe) { h.begin() }

// AfterRegister implements EventHooks.
func (h *LoggingHooks) AfterRegister(name string, r Recipe, err error) {
	h.end("register", name, err, zap.Bool("singleton", r.Singleton), zap.Bool("lazy", r.Lazy()))
}

// BeforeResolve implements EventHooks.
func (h *LoggingHooks) BeforeResolve(string) { h.begin() }

// AfterResolve implements EventHooks.
func (h *LoggingHooks) AfterResolve(name string, instance any, err error) {
	h.end("resolve", name, err, zap.String("instance", typeName(instance)))
}

// BeforeResolveType implements EventHooks.
func (h *LoggingHooks) BeforeResolveType(string) { h.begin() }

// AfterResolveType implements EventHooks.
func (h *LoggingHooks) AfterResolveType(name string, t *Type, err error) {
	h.end("resolve type", name, err, zap.Stringer("type", t))
}

// BeforeBuildUp implements EventHooks.
func (h *LoggingHooks) BeforeBuildUp(string, any) { h.begin() }

// AfterBuildUp implements EventHooks.
func (h *LoggingHooks) AfterBuildUp(name string, instance any, err error) {
	h.end("build up", name, err, zap.String("instance", typeName(instance)))
}

// BeforeClear implements EventHooks.
func (h *LoggingHooks) BeforeClear(string) { h.begin() }

// AfterClear implements EventHooks.
func (h *LoggingHooks) AfterClear(name string) {
	h.end("clear", name, nil)
}
