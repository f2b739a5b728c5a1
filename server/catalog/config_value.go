package catalog

import (
	"context"
	"regexp"

	"github.com/gear6io/metastore/server/types"
)

var configAllowList = regexp.MustCompile(`^(hive|hdfs|mapred)`)

// GetConfigValue returns a server configuration value. Only keys in the
// hive, hdfs and mapred namespaces are readable; an empty name returns def.
func (h *Handler) GetConfigValue(ctx context.Context, name, def string) (value string, err error) {
	defer h.start(ctx, "get_config_value", "", "")(&err)

	if name == "" {
		return def, nil
	}
	if !configAllowList.MatchString(name) {
		return "", types.NewConfigAccessDenied("for security reasons, the config key %s cannot be accessed", name)
	}
	return h.cfg.Get(name, def), nil
}
