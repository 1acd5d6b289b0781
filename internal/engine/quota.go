package engine

// DefaultMaxInstances is the default maximum number of instances per
// Compiler. It stops runaway compilations such as a recursion whose
// inputs change on every level and therefore never hit the memo table.
const DefaultMaxInstances = 100000

// QuotaEnforcer counts instance creations and enforces a limit.
type QuotaEnforcer struct {
	max     int
	current int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
// A limit of zero or less disables the check.
func NewQuotaEnforcer(max int) *QuotaEnforcer {
	return &QuotaEnforcer{max: max}
}

// Check increments the instance counter and reports whether the limit
// still holds.
func (q *QuotaEnforcer) Check() bool {
	q.current++
	return q.max <= 0 || q.current <= q.max
}

// Current returns the number of instances counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// Max returns the limit.
func (q *QuotaEnforcer) Max() int {
	return q.max
}
