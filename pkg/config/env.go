package config

const EnvPrefix = "POS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "POS_APP_ENV"
	EnvPort      = "POS_APP_PORT"
	EnvLogLevel  = "POS_LOG_LEVEL"
	EnvDBDSN     = "POS_DB_DSN"
	EnvDBHost    = "POS_DB_HOST"
	EnvDBPort    = "POS_DB_PORT"
	EnvDBUser    = "POS_DB_USER"
	EnvDBPass    = "POS_DB_PASSWORD"
	EnvDBName    = "POS_DB_NAME"
	EnvUseSQLite = "POS_USE_SQLITE"
	EnvRedisURL  = "POS_REDIS_URL"
	EnvJWTSecret = "POS_JWT_SECRET"
	EnvJWTIssuer = "POS_JWT_ISSUER"
	EnvJWTExp    = "POS_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID         = "POS_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic    = "POS_PUBSUB_ORDERS_TOPIC"
	EnvPubSubInventoryTopic = "POS_PUBSUB_INVENTORY_TOPIC"
	EnvOutboxMaxAttempts    = "POS_OUTBOX_MAX_ATTEMPTS"
	EnvPlacementTimeout     = "POS_ORDERS_PLACEMENT_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
