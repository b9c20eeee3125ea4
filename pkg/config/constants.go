package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PATITAS_DB_DSN"
	EnvDBHost = "PATITAS_DB_HOST"
	EnvDBUser = "PATITAS_DB_USER"
	EnvDBName = "PATITAS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
