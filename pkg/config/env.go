package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "SDFOODS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "SDFOODS_APP_ENV"
	EnvPort                   = "SDFOODS_APP_PORT"
	EnvLogLevel               = "SDFOODS_LOG_LEVEL"
	EnvDBDSN                  = "SDFOODS_DB_DSN"
	EnvDBHost                 = "SDFOODS_DB_HOST"
	EnvDBUser                 = "SDFOODS_DB_USER"
	EnvDBName                 = "SDFOODS_DB_NAME"
	EnvRedisURL               = "SDFOODS_REDIS_URL"
	EnvJWTSecret              = "SDFOODS_JWT_SECRET"
	EnvJWTIssuer              = "SDFOODS_JWT_ISSUER"
	EnvJWTExpMins             = "SDFOODS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SDFOODS_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "SDFOODS_GCP_PROJECT_ID"
	EnvChatTimeout            = "SDFOODS_CHAT_TIMEOUT"
	EnvCORSAllowedOrigins     = "SDFOODS_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
