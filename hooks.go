package blueprint

// EventHooks observes container operations. Every operation calls its
// Before hook, runs, then calls its After hook, synchronously and in the
// caller's goroutine. Hooks observe; they cannot abort or alter an operation.
type EventHooks interface {
	// Initialized is called once New has finished, eager recipes included.
	Initialized(c *Container)

	BeforeRegister(name string, recipe Recipe)
	AfterRegister(name string, recipe Recipe, err error)

	BeforeResolve(name string)
	// AfterResolve is called even if resolution failed.
	AfterResolve(name string, instance any, err error)

	BeforeResolveType(name string)
	AfterResolveType(name string, typ *Type, err error)

	BeforeBuildUp(name string, instance any)
	AfterBuildUp(name string, instance any, err error)

	// BeforeClear and AfterClear receive "" when the whole cache is cleared.
	BeforeClear(name string)
	AfterClear(name string)
}

// NopHooks implements EventHooks with no-ops. Embed it to override only
// the hooks you need.
type NopHooks struct{}

func (NopHooks) Initialized(*Container)                {}
func (NopHooks) BeforeRegister(string, Recipe)         {}
func (NopHooks) AfterRegister(string, Recipe, error)   {}
func (NopHooks) BeforeResolve(string)                  {}
func (NopHooks) AfterResolve(string, any, error)       {}
func (NopHooks) BeforeResolveType(string)              {}
func (NopHooks) AfterResolveType(string, *Type, error) {}
func (NopHooks) BeforeBuildUp(string, any)             {}
func (NopHooks) AfterBuildUp(string, any, error)       {}
func (NopHooks) BeforeClear(string)                    {}
func (NopHooks) AfterClear(string)                     {}

// hookChain fans every event out to the registered hooks in order.
type hookChain struct {
	hooks []EventHooks
}

func newHookChain(hooks ...EventHooks) *hookChain {
	return &hookChain{hooks: append([]EventHooks(nil), hooks...)}
}

func (h *hookChain) add(hooks ...EventHooks) {
	h.hooks = append(h.hooks, hooks...)
}

func (h *hookChain) initialized(c *Container) {
	for _, hk := range h.hooks {
		hk.Initialized(c)
	}
}

func (h *hookChain) beforeRegister(name string, r Recipe) {
	for _, hk := range h.hooks {
		hk.BeforeRegister(name, r)
	}
}

func (h *hookChain) afterRegister(name string, r Recipe, err error) {
	for _, hk := range h.hooks {
		hk.AfterRegister(name, r, err)
	}
}

func (h *hookChain) beforeResolve(name string) {
	for _, hk := range h.hooks {
		hk.BeforeResolve(name)
	}
}

func (h *hookChain) afterResolve(name string, instance any, err error) {
	for _, hk := range h.hooks {
		hk.AfterResolve(name, instance, err)
	}
}

func (h *hookChain) beforeResolveType(name string) {
	for _, hk := range h.hooks {
		hk.BeforeResolveType(name)
	}
}

func (h *hookChain) afterResolveType(name string, t *Type, err error) {
	for _, hk := range h.hooks {
		hk.AfterResolveType(name, t, err)
	}
}

func (h *hookChain) beforeBuildUp(name string, instance any) {
	for _, hk := range h.hooks {
		hk.BeforeBuildUp(name, instance)
	}
}

func (h *hookChain) afterBuildUp(name string, instance any, err error) {
	for _, hk := range h.hooks {
		hk.AfterBuildUp(name, instance, err)
	}
}

func (h *hookChain) beforeClear(name string) {
	for _, hk := range h.hooks {
		hk.BeforeClear(name)
	}
}

func (h *hookChain) afterClear(name string) {
	for _, hk := range h.hooks {
		hk.AfterClear(name)
	}
}

// FuncHooks wraps functions as EventHooks. Nil functions are skipped.
type FuncHooks struct {
	InitializedFunc       func(c *Container)
	BeforeRegisterFunc    func(name string, recipe Recipe)
	AfterRegisterFunc     func(name string, recipe Recipe, err error)
	BeforeResolveFunc     func(name string)
	AfterResolveFunc      func(name string, instance any, err error)
	BeforeResolveTypeFunc func(name string)
	AfterResolveTypeFunc  func(name string, typ *Type, err error)
	BeforeBuildUpFunc     func(name string, instance any)
	AfterBuildUpFunc      func(name string, instance any, err error)
	BeforeClearFunc       func(name string)
	AfterClearFunc        func(name string)
}

// Initialized implements EventHooks.
func (f *FuncHooks) Initialized(c *Container) {
	if f.InitializedFunc != nil {
		f.InitializedFunc(c)
	}
}

// BeforeRegister implements EventHooks.
func (f *FuncHooks) BeforeRegister(name string, recipe Recipe) {
	if f.BeforeRegisterFunc != nil {
		f.BeforeRegisterFunc(name, recipe)
	}
}

// AfterRegister implements EventHooks.
func (f *FuncHooks) AfterRegister(name string, recipe Recipe, err error) {
	if f.AfterRegisterFunc != nil {
		f.AfterRegisterFunc(name, recipe, err)
	}
}

// BeforeResolve implements EventHooks.
func (f *FuncHooks) BeforeResolve(name string) {
	if f.BeforeResolveFunc != nil {
		f.BeforeResolveFunc(name)
	}
}

// AfterResolve implements EventHooks.
func (f *FuncHooks) AfterResolve(name string, instance any, err error) {
	if f.AfterResolveFunc != nil {
		f.AfterResolveFunc(name, instance, err)
	}
}

// BeforeResolveType implements EventHooks.
func (f *FuncHooks) BeforeResolveType(name string) {
	if f.BeforeResolveTypeFunc != nil {
		f.BeforeResolveTypeFunc(name)
	}
}

// AfterResolveType implements EventHooks.
func (f *FuncHooks) AfterResolveType(name string, typ *Type, err error) {
	if f.AfterResolveTypeFunc != nil {
		f.AfterResolveTypeFunc(name, typ, err)
	}
}

// BeforeBuildUp implements EventHooks.
func (f *FuncHooks) BeforeBuildUp(name string, instance any) {
	if f.BeforeBuildUpFunc != nil {
		f.BeforeBuildUpFunc(name, instance)
	}
}

// AfterBuildUp implements EventHooks.
func (f *FuncHooks) AfterBuildUp(name string, instance any, err error) {
	if f.AfterBuildUpFunc != nil {
		f.AfterBuildUpFunc(name, instance, err)
	}
}

// BeforeClear implements EventHooks.
func (f *FuncHooks) BeforeClear(name string) {
	if f.BeforeClearFunc != nil {
		f.BeforeClearFunc(name)
	}
}

// AfterClear implements EventHooks.
func (f *FuncHooks) AfterClear(name string) {
	if f.AfterClearFunc != nil {
		f.AfterClearFunc(name)
	}
}
