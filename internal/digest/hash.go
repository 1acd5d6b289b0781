package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Symatem/Compiler/internal/graph"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows migrating the algorithm later.
const (
	DomainInstance = "symatem/instance/v1"
	DomainProgram  = "symatem/program/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// KeyEntry is one (tag, operand) pair of an instance key, with the raw
// payload of the operand at hashing time.
type KeyEntry struct {
	Tag     graph.Symbol
	Operand graph.Symbol
	Data    []byte
	Length  int
}

// Equal compares two entries including their payloads.
func (e KeyEntry) Equal(o KeyEntry) bool {
	return e.Tag == o.Tag && e.Operand == o.Operand && e.Length == o.Length && string(e.Data) == string(o.Data)
}

// InstanceHash hashes the sorted key entries of an operator invocation.
// The caller is responsible for sorting entries by tag.
func InstanceHash(entries []KeyEntry) (string, error) {
	arr := make([]any, len(entries))
	for i, e := range entries {
		arr[i] = map[string]any{
			"tag":     e.Tag.String(),
			"operand": e.Operand.String(),
			"data":    e.Data,
			"length":  e.Length,
		}
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("InstanceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInstance, canonical), nil
}

// MustInstanceHash is like InstanceHash but panics on error.
func MustInstanceHash(entries []KeyEntry) string {
	h, err := InstanceHash(entries)
	if err != nil {
		panic(err)
	}
	return h
}

// ProgramHash hashes a program definition given as canonical-JSON
// compatible data (maps, slices, strings, integers, booleans).
func ProgramHash(definition any) (string, error) {
	canonical, err := MarshalCanonical(definition)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}
