package http

import (
	"github.com/gear6io/metastore/pkg/errors"
)

// Package-specific error codes for the RPC facade
var (
	HTTPUnknownOperation = errors.MustNewCode("http.unknown_operation")
	HTTPBadRequest       = errors.MustNewCode("http.bad_request")
	HTTPListenFailed     = errors.MustNewCode("http.listen_failed")
	HTTPShutdownFailed   = errors.MustNewCode("http.shutdown_failed")
)
