package llvm

import (
	"fmt"
	"strconv"
	"strings"
)

// namer assigns sequential numbers to unnamed registers and blocks of one
// function: parameters first, then each block followed by the results of
// its instructions.
type namer struct {
	registers map[*Register]string
	blocks    map[*BasicBlock]string
	next      int
}

func newNamer(f *Function) *namer {
	n := &namer{
		registers: make(map[*Register]string),
		blocks:    make(map[*BasicBlock]string),
	}
	for _, p := range f.Params {
		n.define(p)
	}
	for _, b := range f.Blocks {
		if b.Name != "" {
			n.blocks[b] = quoteName(b.Name)
		} else {
			n.blocks[b] = strconv.Itoa(n.next)
			n.next++
		}
		for _, inst := range b.Instructions {
			if r := inst.Result(); r != nil {
				n.define(r)
			}
		}
	}
	return n
}

func (n *namer) define(r *Register) {
	if r.Name != "" {
		n.registers[r] = quoteName(r.Name)
		return
	}
	n.registers[r] = strconv.Itoa(n.next)
	n.next++
}

func (n *namer) register(r *Register) string {
	if name, ok := n.registers[r]; ok {
		return name
	}
	if r.Name != "" {
		return quoteName(r.Name)
	}
	return "?"
}

func (n *namer) block(b *BasicBlock) string {
	if name, ok := n.blocks[b]; ok {
		return name
	}
	return quoteName(b.Name)
}

// quoteName returns name unchanged when it is a valid bare identifier and
// a quoted, escaped form otherwise.
func quoteName(name string) string {
	if isBareName(name) {
		return name
	}
	return quoted([]byte(name))
}

// quoted renders data as a double-quoted IR string, escaping quotes,
// backslashes and non-printable bytes as \XX.
func quoted(data []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range data {
		if c >= 0x20 && c < 0x7F && c != '"' && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, `\%02X`, c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isBareName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-', c == '$', c == '.', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
