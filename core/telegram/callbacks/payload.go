package callbacks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrTooLong is returned when a packed token exceeds MaxDataLen.
	ErrTooLong = errors.New("callbacks: data exceeds 64 bytes")
	// ErrSeparator is returned when a field contains the separator.
	ErrSeparator = errors.New("callbacks: field contains separator")
	// ErrPrefix is returned when a token does not start with the codec prefix.
	ErrPrefix = errors.New("callbacks: prefix mismatch")
)

// Codec packs ordered fields behind a fixed namespace.
type Codec struct {
	Prefix string
}

// Pack joins fields as "<prefix>:<f1>:<f2>...".
func (c Codec) Pack(fields ...string) (string, error) {
	for _, f := range fields {
		if strings.Contains(f, Separator) {
			return "", fmt.Errorf("%w: %q", ErrSeparator, f)
		}
	}
	out := strings.Join(append([]string{c.Prefix}, fields...), Separator)
	if len(out) > MaxDataLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, len(out))
	}
	return out, nil
}

// Unpack splits data produced by Pack. want is the expected number of fields.
func (c Codec) Unpack(data string, want int) (Fields, error) {
	ns, rest := Split(data)
	if ns != c.Prefix {
		return nil, fmt.Errorf("%w: got %q want %q", ErrPrefix, ns, c.Prefix)
	}
	parts := strings.Split(rest, Separator)
	if len(parts) != want {
		return nil, fmt.Errorf("callbacks: %s expects %d fields, got %d", c.Prefix, want, len(parts))
	}
	return Fields(parts), nil
}

// Int formats a required integer field.
func Int(v int64) string { return strconv.FormatInt(v, 10) }

// OptInt formats an optional integer field; nil becomes an empty field.
func OptInt(v *int64) string {
	if v == nil {
		return ""
	}
	return Int(*v)
}

// Fields is the decoded field list of a token.
type Fields []string

// Str returns the raw string at i.
func (f Fields) Str(i int) string {
	if i < 0 || i >= len(f) {
		return ""
	}
	return f[i]
}

// Int parses a required integer at i.
func (f Fields) Int(i int) (int64, error) {
	v, err := strconv.ParseInt(f.Str(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callbacks: field %d: %w", i, err)
	}
	return v, nil
}

// OptInt parses an optional integer at i; an empty field yields nil.
func (f Fields) OptInt(i int) (*int64, error) {
	if f.Str(i) == "" {
		return nil, nil
	}
	v, err := f.Int(i)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// PayloadInt64 parses a single-field callback payload such as "adm_del:42".
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(CallbackPayload(c), 10, 64)
}
