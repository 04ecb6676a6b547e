package pipeline

import (
	"strconv"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
)

// Signature identifies a stage instance by name and by the canonical form of
// the properties relevant to it. Equal signatures mean equal behavior.
type Signature struct {
	Name      string
	Canonical string
}

// NewSignature derives a signature from the relevant subset of properties.
// Keys are sorted, so insertion order never matters.
func NewSignature(name string, relevant config.Properties) Signature {
	var b strings.Builder
	for i, k := range relevant.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		v, _ := relevant.Lookup(k)
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(v))
	}
	return Signature{Name: name, Canonical: b.String()}
}

func (s Signature) String() string {
	if s.Canonical == "" {
		return s.Name
	}
	return s.Name + "{" + s.Canonical + "}"
}
