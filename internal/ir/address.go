package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Address identifies one concrete resource instance.
// Rendered forms: "type.name", "type.name[2]", `type.name["web"]`.
type Address struct {
	Type  string
	Name  string
	Index *IndexKey
}

// IndexKey is the multiplicity index of an expanded resource instance:
// an ordinal position for count-style repetition, or a string key for
// for_each-style repetition.
type IndexKey struct {
	Ordinal int
	Key     string
	Keyed   bool
}

// OrdinalIndex returns an ordinal (count-style) index key.
func OrdinalIndex(i int) *IndexKey {
	return &IndexKey{Ordinal: i}
}

// KeyedIndex returns a keyed (for_each-style) index key.
func KeyedIndex(k string) *IndexKey {
	return &IndexKey{Key: k, Keyed: true}
}

func (k *IndexKey) String() string {
	if k == nil {
		return ""
	}
	if k.Keyed {
		return fmt.Sprintf("[%q]", k.Key)
	}
	return fmt.Sprintf("[%d]", k.Ordinal)
}

// String renders the canonical address form used as a map key throughout
// the engine and in the state document.
func (a Address) String() string {
	return a.Type + "." + a.Name + a.Index.String()
}

// Base returns the address without its index, i.e. the address of the
// unexpanded resource declaration.
func (a Address) Base() Address {
	return Address{Type: a.Type, Name: a.Name}
}

// ParseAddress parses the canonical rendered form back into an Address.
// The type may itself contain dots (e.g. "azure.network.Vnet"), so the
// name is the last dot-separated segment before any index.
func ParseAddress(s string) (Address, error) {
	rest := s
	var idx *IndexKey

	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return Address{}, fmt.Errorf("invalid resource address %q: unterminated index", s)
		}
		raw := rest[i+1 : len(rest)-1]
		rest = rest[:i]
		if strings.HasPrefix(raw, `"`) {
			key, err := strconv.Unquote(raw)
			if err != nil {
				return Address{}, fmt.Errorf("invalid resource address %q: bad index key: %w", s, err)
			}
			idx = KeyedIndex(key)
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return Address{}, fmt.Errorf("invalid resource address %q: bad ordinal index: %w", s, err)
			}
			idx = OrdinalIndex(n)
		}
	}

	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 || dot == len(rest)-1 {
		return Address{}, fmt.Errorf("invalid resource address %q: expected type.name", s)
	}

	return Address{Type: rest[:dot], Name: rest[dot+1:], Index: idx}, nil
}
