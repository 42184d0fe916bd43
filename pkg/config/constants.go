package config

// EnvPrefix scopes every environment variable read by envconfig.
const EnvPrefix = "souqly"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "SOUQLY_APP_ENV"

	EnvDBDSN  = "SOUQLY_DB_DSN"
	EnvDBHost = "SOUQLY_DB_HOST"
	EnvDBUser = "SOUQLY_DB_USER"
	EnvDBName = "SOUQLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
