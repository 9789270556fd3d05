package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MaxDisplayLength bounds the human-readable argument rendering used in
// artifact file names, keeping paths within filesystem limits.
const MaxDisplayLength = 160

// Key identifies one argument set: a sanitized display string for file
// naming plus a digest of the canonical encoding.
type Key struct {
	// Display is a truncated, path-safe rendering of the arguments.
	Display string

	// Digest is the hex-encoded SHA-256 of the canonical encoding.
	Digest string
}

// HashArgs derives the Key for a binding.
//
// Canonical bindings are encoded as one JSON object in parameter order, so
// positional and named spellings of the same call collide. Raw bindings
// encode the positional list verbatim followed by the named values sorted by
// name, so call-site spelling is part of the identity. encoding/json sorts
// map keys, which makes the encoding deterministic for map-valued arguments
// as well.
func HashArgs(b Binding) (Key, error) {
	var enc strings.Builder
	var display []string

	if b.Canonical {
		enc.WriteByte('{')
		for i, p := range b.Pairs {
			v, err := canonValue(p.Name, i, p.Value)
			if err != nil {
				return Key{}, err
			}
			if i > 0 {
				enc.WriteByte(',')
			}
			name, _ := json.Marshal(p.Name)
			enc.Write(name)
			enc.WriteByte(':')
			enc.Write(v)
			display = append(display, p.Name+"="+string(v))
		}
		enc.WriteByte('}')
	} else {
		var positional []string
		var named []Pair
		for _, p := range b.Pairs {
			if p.Name == "" {
				positional = append(positional, "")
				continue
			}
			named = append(named, p)
		}

		enc.WriteString("[[")
		n := 0
		for i, p := range b.Pairs {
			if p.Name != "" {
				continue
			}
			v, err := canonValue(p.Name, i, p.Value)
			if err != nil {
				return Key{}, err
			}
			if n > 0 {
				enc.WriteByte(',')
			}
			enc.Write(v)
			positional[n] = string(v)
			n++
		}
		enc.WriteString("],{")

		// Digest ordering for named values is by name; the display keeps
		// call-site order.
		for _, p := range named {
			display = append(display, p.Name+"-"+renderValue(p.Value))
		}
		sorted := append([]Pair(nil), named...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for i, p := range sorted {
			v, err := canonValue(p.Name, i, p.Value)
			if err != nil {
				return Key{}, err
			}
			if i > 0 {
				enc.WriteByte(',')
			}
			name, _ := json.Marshal(p.Name)
			enc.Write(name)
			enc.WriteByte(':')
			enc.Write(v)
		}
		enc.WriteString("}]")

		display = append(positional[:n:n], display...)
	}

	text := enc.String()
	sum := sha256.Sum256([]byte(text))

	disp := SanitizeName(strings.Join(display, ","))
	if len(disp) > MaxDisplayLength {
		disp = disp[:MaxDisplayLength]
	}

	return Key{Display: disp, Digest: hex.EncodeToString(sum[:])}, nil
}

// canonValue encodes one argument value deterministically.
func canonValue(name string, pos int, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		if name == "" {
			name = fmt.Sprintf("#%d", pos)
		}
		return nil, &CanonicalizationError{
			Name:  name,
			Type:  fmt.Sprintf("%T", v),
			Cause: err,
		}
	}
	return data, nil
}

// renderValue is the display-only rendering of a value; encoding failures
// are caught by canonValue, not here.
func renderValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
