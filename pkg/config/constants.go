package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "MESHILOG"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MESHILOG_DB_DSN"
	EnvDBHost = "MESHILOG_DB_HOST"
	EnvDBUser = "MESHILOG_DB_USER"
	EnvDBName = "MESHILOG_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
