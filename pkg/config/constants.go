package config

// EnvPrefix is empty because every field carries its fully qualified
// FLEETOPS_ tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "FLEETOPS_DB_DSN"
	EnvDBHost = "FLEETOPS_DB_HOST"
	EnvDBUser = "FLEETOPS_DB_USER"
	EnvDBName = "FLEETOPS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
