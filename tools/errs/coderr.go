package errs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CodeError is the error shape every client-visible failure reduces to.
// Code travels on the wire inside acknowledgement frames; Detail never does.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra server-side context.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(target error) bool {
	other, ok := target.(*CodeError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// Code extracts the numeric wire code from any error chain.
// Unclassified errors map to ErrUnknown.
func Code(err error) int {
	if err == nil {
		return NoErr
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrUnknown
}

// New builds a plain stack-carrying error (internal use, no wire code).
func New(msg string) error { return errors.New(msg) }

// Wrap annotates err with msg and a stack trace, preserving any CodeError
// in the chain so Code() still resolves it.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// WrapMsg annotates err with msg plus key/value context.
func WrapMsg(err error, msg string, kv ...any) error {
	if len(kv) == 0 {
		return errors.Wrap(err, msg)
	}
	parts := make([]string, 0, len(kv)/2+1)
	parts = append(parts, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, toString(kv[i])+"="+toString(kv[i+1]))
	}
	return errors.Wrap(err, strings.Join(parts, " "))
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case error:
		return s.Error()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(v)
	}
}
