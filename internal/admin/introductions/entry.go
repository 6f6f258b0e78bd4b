package introductions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SectionCount is the fixed number of title/content pairs carried by an entry.
const SectionCount = 5

// ErrUnknownField is returned when a field name does not map to an editable entry field.
var ErrUnknownField = errors.New("introductions: unknown field")

// ID identifies an entry. The backing store assigns it; the admin never rewrites it.
type ID string

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// Validate rejects identifiers that cannot address a single entry: blank values, dot segments
// and values containing a path separator.
func (id ID) Validate() error {
	raw := strings.TrimSpace(string(id))
	switch {
	case raw == "":
		return ErrMissingID
	case raw == "." || raw == "..", strings.ContainsAny(raw, "/\\"):
		return fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return nil
}

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("introductions: invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// Entry is one self-introduction record: a title plus five titled sections.
type Entry struct {
	ID       ID     `json:"idx,omitempty"`
	Title    string `json:"introductionTitle"`
	Title1   string `json:"title1"`
	Content1 string `json:"content1"`
	Title2   string `json:"title2"`
	Content2 string `json:"content2"`
	Title3   string `json:"title3"`
	Content3 string `json:"content3"`
	Title4   string `json:"title4"`
	Content4 string `json:"content4"`
	Title5   string `json:"title5"`
	Content5 string `json:"content5"`
}

// Section is a single titled block of an entry.
type Section struct {
	Index   int
	Title   string
	Content string
}

// Sections returns the five sections in presentation order.
func (e Entry) Sections() []Section {
	sections := make([]Section, 0, SectionCount)
	for i := 1; i <= SectionCount; i++ {
		sections = append(sections, Section{
			Index:   i,
			Title:   e.Get(SectionTitle(i)),
			Content: e.Get(SectionContent(i)),
		})
	}
	return sections
}

// Get returns the value stored for the field.
func (e Entry) Get(f Field) string {
	if p := e.slot(f); p != nil {
		return *p
	}
	return ""
}

// With returns a copy of the entry where only the given field is replaced.
func (e Entry) With(f Field, value string) Entry {
	if p := e.slot(f); p != nil {
		*p = value
	}
	return e
}

func (e *Entry) slot(f Field) *string {
	switch f {
	case FieldTitle:
		return &e.Title
	case fieldTitle1:
		return &e.Title1
	case fieldContent1:
		return &e.Content1
	case fieldTitle2:
		return &e.Title2
	case fieldContent2:
		return &e.Content2
	case fieldTitle3:
		return &e.Title3
	case fieldContent3:
		return &e.Content3
	case fieldTitle4:
		return &e.Title4
	case fieldContent4:
		return &e.Content4
	case fieldTitle5:
		return &e.Title5
	case fieldContent5:
		return &e.Content5
	default:
		return nil
	}
}

// Field enumerates the editable fields of an entry. The zero value is invalid.
type Field uint8

const (
	fieldInvalid Field = iota
	// FieldTitle is the entry's display label.
	FieldTitle
	fieldTitle1
	fieldContent1
	fieldTitle2
	fieldContent2
	fieldTitle3
	fieldContent3
	fieldTitle4
	fieldContent4
	fieldTitle5
	fieldContent5
)

var fieldNames = map[Field]string{
	FieldTitle:    "introductionTitle",
	fieldTitle1:   "title1",
	fieldContent1: "content1",
	fieldTitle2:   "title2",
	fieldContent2: "content2",
	fieldTitle3:   "title3",
	fieldContent3: "content3",
	fieldTitle4:   "title4",
	fieldContent4: "content4",
	fieldTitle5:   "title5",
	fieldContent5: "content5",
}

// SectionTitle returns the title field of section n (1-based). Out of range yields an invalid field.
func SectionTitle(n int) Field {
	if n < 1 || n > SectionCount {
		return fieldInvalid
	}
	return Field(int(fieldTitle1) + (n-1)*2)
}

// SectionContent returns the content field of section n (1-based).
func SectionContent(n int) Field {
	if n < 1 || n > SectionCount {
		return fieldInvalid
	}
	return Field(int(fieldContent1) + (n-1)*2)
}

// Fields lists every editable field in form order.
func Fields() []Field {
	out := make([]Field, 0, len(fieldNames))
	for f := FieldTitle; f <= fieldContent5; f++ {
		out = append(out, f)
	}
	return out
}

// ParseField maps a wire/form name such as "content2" onto its Field.
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	return fieldInvalid, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Name returns the wire/form name of the field.
func (f Field) Name() string {
	return fieldNames[f]
}

// Valid reports whether f is one of the editable fields.
func (f Field) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

func (f Field) String() string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return "invalid(" + strconv.Itoa(int(f)) + ")"
}
