package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ErrAttrName is reported when an attribute name could break out of its tag.
var ErrAttrName = errors.New("helpers: invalid attribute name")

// HTML writes markup to an io.Writer, keeping the first error. Text and attribute values are escaped;
// Raw is for trusted markup only.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup.
func (h *HTML) Raw(s string) *HTML {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
	return h
}

// Text writes escaped text.
func (h *HTML) Text(s string) *HTML {
	return h.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with the value escaped. An invalid name stops rendering with ErrAttrName.
func (h *HTML) Attr(name, value string) *HTML {
	if !h.checkAttrName(name) {
		return h
	}
	return h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// AttrIf writes a boolean attribute when cond holds.
func (h *HTML) AttrIf(cond bool, name string) *HTML {
	if cond && h.checkAttrName(name) {
		h.Raw(" " + name)
	}
	return h
}

func (h *HTML) checkAttrName(name string) bool {
	if h.err != nil {
		return false
	}
	if !validAttrName(name) {
		h.err = fmt.Errorf("%w: %q", ErrAttrName, name)
		return false
	}
	return true
}

// validAttrName follows the HTML attribute-name production: no whitespace, controls, quotes,
// '>', '/', '=' or '<'.
func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return r <= ' ' || r == 0x7f || strings.ContainsRune(`"'<>/=`, r)
	})
}

// Component renders a nested component.
func (h *HTML) Component(ctx context.Context, c templ.Component) *HTML {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
	return h
}

// Err returns the first write error.
func (h *HTML) Err() error { return h.err }

// Func builds a component from a function that writes through HTML.
func Func(fn func(ctx context.Context, h *HTML)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		fn(ctx, h)
		return h.Err()
	})
}

