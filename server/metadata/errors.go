package metadata

import "github.com/gear6io/metastore/pkg/errors"

var (
	MetadataUnknownStore  = errors.MustNewCode("metadata.unknown_store")
	MetadataOpenFailed    = errors.MustNewCode("metadata.open_failed")
	MetadataNoTransaction = errors.MustNewCode("metadata.no_transaction")
	MetadataCommitFailed  = errors.MustNewCode("metadata.commit_failed")
	MetadataRolledBack    = errors.MustNewCode("metadata.rolled_back")
	MetadataSessionClosed = errors.MustNewCode("metadata.session_closed")
)
