package model

import (
	"sort"
	"strings"
)

// Field names understood when building a transaction.
const (
	FieldAmount   = "amount"
	FieldAccount  = "account"
	FieldMerchant = "merchant"
	FieldDate     = "date"
	FieldBalance  = "balance"
	FieldType     = "type"
	FieldKind     = "kind"
	FieldCategory = "category"
	FieldMessage  = "message"
)

// fieldAliases maps alternative capture group names onto canonical field names.
var fieldAliases = map[string]string{
	"account_no": FieldAccount,
	"acct":       FieldAccount,
	"payee":      FieldMerchant,
	"bal":        FieldBalance,
}

// FieldSet is a set of named string values captured from a message or declared
// on a rule.
type FieldSet map[string]string

// Canonical returns the canonical name for a field key.
func Canonical(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if alias, ok := fieldAliases[key]; ok {
		return alias
	}
	return key
}

// Overlay returns a new set containing the receiver's values as defaults with
// overrides applied on top. Keys are canonicalized; empty override values still win.
// Within one set a key spelled canonically wins over its aliases.
func (f FieldSet) Overlay(overrides FieldSet) FieldSet {
	out := make(FieldSet, len(f)+len(overrides))
	f.applyTo(out)
	overrides.applyTo(out)
	return out
}

// applyTo copies the set into out under canonical keys. Aliases are applied
// first, in sorted order, so the result does not depend on map iteration.
func (f FieldSet) applyTo(out FieldSet) {
	keys := f.Keys()
	for _, k := range keys {
		if c := Canonical(k); c != k {
			out[c] = f[k]
		}
	}
	for _, k := range keys {
		if Canonical(k) == k {
			out[k] = f[k]
		}
	}
}

// Get returns the trimmed value of a field and whether it was present and non-empty.
func (f FieldSet) Get(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Keys returns the field names in sorted order.
func (f FieldSet) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
