package config

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "BOOKHAVEN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "BOOKHAVEN_APP_ENV"
	EnvDBDSN  = "BOOKHAVEN_DB_DSN"
	EnvDBHost = "BOOKHAVEN_DB_HOST"
	EnvDBUser = "BOOKHAVEN_DB_USER"
	EnvDBName = "BOOKHAVEN_DB_NAME"
)

var dbEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
