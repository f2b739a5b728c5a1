package types

import (
	"fmt"

	"github.com/gear6io/metastore/pkg/errors"
)

// Catalog error taxonomy. Every failure returned across the RPC surface
// carries exactly one of these codes.
var (
	AlreadyExists      = errors.MustNewCode("catalog.already_exists")
	NoSuchObject       = errors.MustNewCode("catalog.no_such_object")
	InvalidObject      = errors.MustNewCode("catalog.invalid_object")
	InvalidOperation   = errors.MustNewCode("catalog.invalid_operation")
	ConfigAccessDenied = errors.MustNewCode("catalog.config_access_denied")
	SystemFailure      = errors.MustNewCode("catalog.system_failure")
)

// Kind names a taxonomy code the way it travels over the wire.
type Kind string

const (
	KindAlreadyExists      Kind = "AlreadyExists"
	KindNoSuchObject       Kind = "NoSuchObject"
	KindInvalidObject      Kind = "InvalidObject"
	KindInvalidOperation   Kind = "InvalidOperation"
	KindConfigAccessDenied Kind = "ConfigAccessDenied"
	KindSystemFailure      Kind = "SystemFailure"
)

var kindCodes = map[Kind]errors.Code{
	KindAlreadyExists:      AlreadyExists,
	KindNoSuchObject:       NoSuchObject,
	KindInvalidObject:      InvalidObject,
	KindInvalidOperation:   InvalidOperation,
	KindConfigAccessDenied: ConfigAccessDenied,
	KindSystemFailure:      SystemFailure,
}

// KindOf classifies err. Anything outside the taxonomy is a SystemFailure.
func KindOf(err error) Kind {
	code := errors.GetCode(err)
	for kind, c := range kindCodes {
		if c.String() == code {
			return kind
		}
	}
	return KindSystemFailure
}

// CodeOf returns the taxonomy code for kind, falling back to SystemFailure.
func CodeOf(kind Kind) errors.Code {
	if c, ok := kindCodes[kind]; ok {
		return c
	}
	return SystemFailure
}

func NewAlreadyExists(format string, args ...interface{}) *errors.Error {
	return errors.New(AlreadyExists, fmt.Sprintf(format, args...), nil)
}

func NewNoSuchObject(format string, args ...interface{}) *errors.Error {
	return errors.New(NoSuchObject, fmt.Sprintf(format, args...), nil)
}

func NewInvalidObject(format string, args ...interface{}) *errors.Error {
	return errors.New(InvalidObject, fmt.Sprintf(format, args...), nil)
}

func NewInvalidOperation(format string, args ...interface{}) *errors.Error {
	return errors.New(InvalidOperation, fmt.Sprintf(format, args...), nil)
}

func NewConfigAccessDenied(format string, args ...interface{}) *errors.Error {
	return errors.New(ConfigAccessDenied, fmt.Sprintf(format, args...), nil)
}

// NewSystemFailure wraps cause, which may be nil.
func NewSystemFailure(cause error, format string, args ...interface{}) *errors.Error {
	return errors.New(SystemFailure, fmt.Sprintf(format, args...), cause)
}

func IsAlreadyExists(err error) bool    { return KindOf(err) == KindAlreadyExists }
func IsNoSuchObject(err error) bool     { return KindOf(err) == KindNoSuchObject }
func IsInvalidObject(err error) bool    { return KindOf(err) == KindInvalidObject }
func IsInvalidOperation(err error) bool { return KindOf(err) == KindInvalidOperation }
func IsSystemFailure(err error) bool    { return err != nil && KindOf(err) == KindSystemFailure }
