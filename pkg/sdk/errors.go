package sdk

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/tidwall/gjson"
)

// Error kinds reported by the server.
const (
	KindAlreadyExists      = "AlreadyExists"
	KindNoSuchObject       = "NoSuchObject"
	KindInvalidObject      = "InvalidObject"
	KindInvalidOperation   = "InvalidOperation"
	KindConfigAccessDenied = "ConfigAccessDenied"
	KindSystemFailure      = "SystemFailure"
)

// ServerError is a failure reported by the catalog server.
type ServerError struct {
	Op      string
	Status  int
	Kind    string
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s [%s]: %s", e.Op, e.Kind, e.Code, e.Message)
}

// decodeError reads the {"error":{...}} body. Anything unparsable is
// reported as a system failure carrying the raw body.
func decodeError(op string, status int, body []byte) error {
	e := &ServerError{Op: op, Status: status, Kind: KindSystemFailure}
	if !gjson.ValidBytes(body) {
		e.Message = string(body)
		return e
	}
	detail := gjson.GetBytes(body, "error")
	if kind := detail.Get("type").String(); kind != "" {
		e.Kind = kind
	}
	e.Code = detail.Get("code").String()
	e.Message = detail.Get("message").String()
	if e.Message == "" {
		e.Message = string(body)
	}
	return e
}

// KindOf returns the server error kind of err, or "" for client side
// failures.
func KindOf(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsAlreadyExists(err error) bool      { return KindOf(err) == KindAlreadyExists }
func IsNoSuchObject(err error) bool       { return KindOf(err) == KindNoSuchObject }
func IsInvalidObject(err error) bool      { return KindOf(err) == KindInvalidObject }
func IsInvalidOperation(err error) bool   { return KindOf(err) == KindInvalidOperation }
func IsConfigAccessDenied(err error) bool { return KindOf(err) == KindConfigAccessDenied }
func IsSystemFailure(err error) bool      { return KindOf(err) == KindSystemFailure }
