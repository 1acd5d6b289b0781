package graph

// Operands maps an operand tag to the operand symbol bound to it.
type Operands map[Symbol]Symbol

// SortedTags returns the tags in ascending order.
//
// Every iteration over operands that influences hashing, parameter order or
// emitted IR goes through SortedTags so that results are deterministic.
func (o Operands) SortedTags() []Symbol {
	tags := make([]Symbol, 0, len(o))
	for tag := range o {
		tags = append(tags, tag)
	}
	SortSymbols(tags)
	return tags
}

// Clone returns a shallow copy.
func (o Operands) Clone() Operands {
	c := make(Operands, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Without returns a copy lacking the given tags.
func (o Operands) Without(tags ...Symbol) Operands {
	c := o.Clone()
	for _, tag := range tags {
		delete(c, tag)
	}
	return c
}

// Equal reports whether both maps bind the same tags to the same operands.
func (o Operands) Equal(other Operands) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		if w, ok := other[k]; !ok || w != v {
			return false
		}
	}
	return true
}
