package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// InternalError is implemented by foreign error types that know how to
// present themselves as a coded Error.
type InternalError interface {
	error
	Transform() *Error
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var coded *Error
		if !stderrors.As(err, &coded) {
			return false
		}
		if coded.Code.Equals(code) {
			return true
		}
		err = coded.Cause
	}
	return false
}

// GetCode returns the code of the outermost coded error in err's chain.
func GetCode(err error) string {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code.String()
	}
	return ""
}

func GetContext(err error) map[string]string {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Context
	}
	return nil
}

// FormatError renders err over several lines for logs.
func FormatError(err error) string {
	var coded *Error
	if !stderrors.As(err, &coded) {
		return err.Error()
	}

	parts := []string{
		fmt.Sprintf("Code: %s", coded.Code),
		fmt.Sprintf("Message: %s", coded.Message),
	}
	if len(coded.Context) > 0 {
		keys := make([]string, 0, len(coded.Context))
		for k := range coded.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, "Context:")
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("  %s: %v", k, coded.Context[k]))
		}
	}
	if coded.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", coded.Cause))
	}
	return strings.Join(parts, "\n")
}

// AsError converts any error to the coded form. InternalError values are
// transformed, coded errors are returned as-is and everything else is
// wrapped as common.internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if ie, ok := err.(InternalError); ok {
		return ie.Transform()
	}
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded
	}
	return New(CommonInternal, err.Error(), err)
}
