package config

import (
	"fmt"
	"strings"
)

// BuildDSN returns a MySQL-compatible data source name. If d.DSN is
// already set (loaded directly or via dsn_file), it is used as the base;
// otherwise the base is built from the discrete connection fields. In
// both cases parseTime, loc and tls parameters are appended when the base
// does not already carry them.
func (d *DatabaseConfig) BuildDSN() string {
	if d.DSN != "" {
		return d.withParams(d.DSN)
	}
	return d.withParams(fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s",
		d.User, d.Password, d.Host, d.Port, d.Database,
	))
}

func (d *DatabaseConfig) withParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "parseTime") {
		dsn += sep + "parseTime=true"
		sep = "&"
	}
	if !strings.Contains(dsn, "loc=") {
		dsn += sep + "loc=UTC"
		sep = "&"
	}
	if tlsParam := d.effectiveTLSParam(); tlsParam != "" && !strings.Contains(dsn, "tls=") {
		dsn += sep + "tls=" + tlsParam
	}
	return dsn
}

// effectiveTLSParam maps the configured TLS mode to a go-sql-driver/mysql
// "tls" DSN parameter value.
func (d *DatabaseConfig) effectiveTLSParam() string {
	switch d.TLSMode {
	case "", "off":
		return ""
	case "skip-verify":
		return "skip-verify"
	case "true", "verify-full":
		return "true"
	default:
		return d.TLSMode
	}
}
