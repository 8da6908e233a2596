package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Register is the court register a case is filed under.
type Register string

const (
	RegisterAR Register = "AR"
	RegisterC  Register = "C"
	RegisterH  Register = "H"
	RegisterO  Register = "O"
	RegisterOH Register = "OH"
	RegisterQ  Register = "Q"
	RegisterS  Register = "S"
	RegisterT  Register = "T"
	RegisterU  Register = "U"
)

var registers = map[Register]bool{
	RegisterAR: true, RegisterC: true, RegisterH: true, RegisterO: true,
	RegisterOH: true, RegisterQ: true, RegisterS: true, RegisterT: true,
	RegisterU: true,
}

// Valid reports whether r belongs to the known register vocabulary.
func (r Register) Valid() bool {
	return registers[r]
}

// ErrInvalidReference is returned when text is not a well-formed reference.
var ErrInvalidReference = errors.New("invalid case reference")

// Reference identifies a case: entity, register, running number and year.
//
// It has two encodings. The value form "123 O 1/24" is what court exports
// and people use; the id form "00123O24-00001" sorts and indexes well.
type Reference struct {
	Entity   int
	Register Register
	Number   int
	Year     int
}

var (
	idPattern    = regexp.MustCompile(`^(\d{1,5})([A-Z]+)(\d{2})-(\d{1,5})$`)
	valuePattern = regexp.MustCompile(`^(\d+)\s*([A-Z]+)\s*(\d+)/(\d+)$`)
)

// ParseReference parses the value form, e.g. "123 O 1/24".
func ParseReference(s string) (Reference, error) {
	m := valuePattern.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	return newReference(s, m[1], m[2], m[3], m[4])
}

// ParseReferenceID parses the id form, e.g. "00123O24-00001".
func ParseReferenceID(s string) (Reference, error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	return newReference(s, m[1], m[2], m[4], m[3])
}

func newReference(raw, entity, register, number, year string) (Reference, error) {
	ref := Reference{Register: Register(register)}

	var err error
	if ref.Entity, err = boundedInt(entity, 99999); err != nil {
		return Reference{}, fmt.Errorf("%w: %q: entity %v", ErrInvalidReference, raw, err)
	}
	if ref.Number, err = boundedInt(number, 99999); err != nil {
		return Reference{}, fmt.Errorf("%w: %q: number %v", ErrInvalidReference, raw, err)
	}
	if ref.Year, err = boundedInt(year, 99); err != nil {
		return Reference{}, fmt.Errorf("%w: %q: year %v", ErrInvalidReference, raw, err)
	}
	if !ref.Register.Valid() {
		return Reference{}, fmt.Errorf("%w: %q: unknown register %q", ErrInvalidReference, raw, register)
	}
	return ref, nil
}

func boundedInt(s string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("out of range 0-%d", max)
	}
	return n, nil
}

// ID returns the zero-padded id form.
func (r Reference) ID() string {
	return fmt.Sprintf("%05d%s%02d-%05d", r.Entity, r.Register, r.Year, r.Number)
}

// String returns the value form.
func (r Reference) String() string {
	return fmt.Sprintf("%d %s %d/%02d", r.Entity, r.Register, r.Number, r.Year)
}

// IsZero reports whether r is the zero reference.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

// MarshalText encodes the value form.
func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts either encoding.
func (r *Reference) UnmarshalText(b []byte) error {
	ref, err := ParseReference(string(b))
	if err != nil {
		if ref, err = ParseReferenceID(string(b)); err != nil {
			return err
		}
	}
	*r = ref
	return nil
}
