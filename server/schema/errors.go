package schema

import "github.com/gear6io/metastore/pkg/errors"

// Package-specific error codes for schema derivation
var (
	SchemaMissingDescriptor   = errors.MustNewCode("schema.missing_descriptor")
	SchemaUnsupportedSerde    = errors.MustNewCode("schema.unsupported_serde")
	SchemaMissingLiteral      = errors.MustNewCode("schema.missing_literal")
	SchemaInvalidLiteral      = errors.MustNewCode("schema.invalid_literal")
	SchemaUnsupportedAvroType = errors.MustNewCode("schema.unsupported_avro_type")
)
