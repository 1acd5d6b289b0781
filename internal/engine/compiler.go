package engine

import (
	"fmt"
	"log/slog"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
	"github.com/Symatem/Compiler/internal/vocab"
)

// MissingOperandPolicy decides what happens when a carrier's source does
// not produce the operand it names.
type MissingOperandPolicy int

const (
	// PolicySubstituteVoid logs a warning and carries Void instead.
	PolicySubstituteVoid MissingOperandPolicy = iota
	// PolicyFail aborts with MISSING_OPERAND.
	PolicyFail
)

// String returns the policy name used by the CLI.
func (p MissingOperandPolicy) String() string {
	if p == PolicyFail {
		return "fail"
	}
	return "substitute-void"
}

// Compiler is one compilation context. It is not safe for concurrent use;
// independent Compilers never share caches.
//
// INVARIANTS:
//   - memo maps each distinct sorted input map to exactly one Instance
//   - an Instance is registered in memo before it starts running
//   - only Execute drains the wake queue
type Compiler struct {
	store     graph.Store
	namespace uint32
	types     *llvm.TypeCache
	bridge    *values.Bridge
	module    *llvm.Module

	memo       *memoTable
	quota      *QuotaEnforcer
	wake       *wakeQueue
	trace      *Trace
	primitives map[graph.Symbol]primitive
	active     []*Instance

	logger   *slog.Logger
	policy   MissingOperandPolicy
	sessions SessionGenerator
	session  string
	poisoned error
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// WithMaxInstances sets the maximum number of instances.
//
// Default: 100000 (DefaultMaxInstances). Zero disables the limit.
func WithMaxInstances(n int) Option {
	return func(c *Compiler) {
		c.quota = NewQuotaEnforcer(n)
	}
}

// WithMissingOperandPolicy sets the policy for carriers whose source lacks
// the named operand. Default: PolicySubstituteVoid.
func WithMissingOperandPolicy(p MissingOperandPolicy) Option {
	return func(c *Compiler) {
		c.policy = p
	}
}

// WithSessionGenerator sets the session id generator. Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(c *Compiler) {
		c.sessions = g
	}
}

// WithIdentity sets the producer string emitted as !llvm.ident metadata.
func WithIdentity(ident string) Option {
	return func(c *Compiler) {
		c.module.Identity = ident
	}
}

// New creates a Compiler allocating its symbols in a fresh namespace of store.
func New(store graph.Store, opts ...Option) (*Compiler, error) {
	c := &Compiler{
		store:      store,
		types:      llvm.NewTypeCache(),
		module:     llvm.NewModule(),
		memo:       newMemoTable(),
		quota:      NewQuotaEnforcer(DefaultMaxInstances),
		wake:       newWakeQueue(),
		trace:      newTrace(),
		primitives: primitiveTable(),
		logger:     slog.Default(),
		sessions:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.namespace = graph.CreateNamespace(store)
	bridge, err := values.NewBridge(store, c.types, c.namespace)
	if err != nil {
		return nil, fmt.Errorf("create value bridge: %w", err)
	}
	c.bridge = bridge
	c.session = c.sessions.Generate()
	c.logger.Debug("compiler created", "session", c.session, "namespace", c.namespace)
	return c, nil
}

// Session returns the session id of this compilation.
func (c *Compiler) Session() string { return c.session }

// Namespace returns the namespace holding instances and interned symbols.
func (c *Compiler) Namespace() uint32 { return c.namespace }

// Store returns the graph store.
func (c *Compiler) Store() graph.Store { return c.store }

// Bridge returns the value bridge.
func (c *Compiler) Bridge() *values.Bridge { return c.bridge }

// Module returns the module built so far.
func (c *Compiler) Module() *llvm.Module { return c.module }

// Trace returns the diagnostic trace.
func (c *Compiler) Trace() *Trace { return c.trace }

// Instances lists memoized instances in creation order.
func (c *Compiler) Instances() []*Instance {
	return c.memo.all()
}

// Lookup returns the instance with the given symbol.
func (c *Compiler) Lookup(sym graph.Symbol) (*Instance, bool) {
	inst, ok := c.memo.bySymbol[sym]
	return inst, ok
}

// IR serializes the module.
func (c *Compiler) IR() (string, error) {
	return c.module.Serialize()
}

// Alias emits an alias declaration giving the function of inst a second
// global name.
func (c *Compiler) Alias(name string, inst *Instance) error {
	if inst.Function == nil {
		return &CompileError{
			Code:     ErrCodeGraphMalformed,
			Message:  "cannot alias an instance without a function",
			Instance: c.describeInstance(inst),
		}
	}
	if c.module.HasGlobal(name) {
		return &CompileError{
			Code:    ErrCodeGraphMalformed,
			Message: fmt.Sprintf("global @%s already exists", name),
		}
	}
	c.module.AddAlias(&llvm.Alias{Name: name, Aliasee: inst.Function})
	return nil
}

func (c *Compiler) describe(sym graph.Symbol) string {
	return vocab.Describe(c.store, sym)
}

func (c *Compiler) describeAll(syms ...graph.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = c.describe(s)
	}
	return out
}

func (c *Compiler) describeInstance(inst *Instance) string {
	if inst == nil {
		return ""
	}
	return c.describe(inst.Operator) + "#" + inst.Symbol.String()
}

func (c *Compiler) describeOperands(ops graph.Operands) []string {
	out := make([]string, 0, len(ops))
	for _, tag := range ops.SortedTags() {
		out = append(out, c.describe(tag)+"="+c.describe(ops[tag]))
	}
	return out
}

// fail builds a CompileError for the instance currently running.
func (c *Compiler) fail(code ErrorCode, symbols []graph.Symbol, format string, args ...any) error {
	err := &CompileError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Symbols: c.describeAll(symbols...),
	}
	if n := len(c.active); n > 0 {
		err.Instance = c.describeInstance(c.active[n-1])
	}
	c.trace.record("ERROR: "+err.Message, err.Symbols...)
	return err
}

// wrap turns an error from the value bridge into a CompileError.
func (c *Compiler) wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*CompileError); ok {
		return err
	}
	ce := c.fail(classify(err), nil, "%v", err).(*CompileError)
	ce.Err = err
	return ce
}
