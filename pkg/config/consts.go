package config

const (
	// EnvPrefix is passed to envconfig.Process; individual tags carry the
	// full variable names so the prefix stays documentation-friendly.
	EnvPrefix = "replenish"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "REPLENISH_APP_ENV"
	EnvPort     = "REPLENISH_APP_PORT"
	EnvLogLevel = "REPLENISH_LOG_LEVEL"

	EnvDBDSN  = "REPLENISH_DB_DSN"
	EnvDBHost = "REPLENISH_DB_HOST"
	EnvDBUser = "REPLENISH_DB_USER"
	EnvDBName = "REPLENISH_DB_NAME"

	EnvRedisURL = "REPLENISH_REDIS_URL"

	EnvGCPProjectID       = "REPLENISH_GCP_PROJECT_ID"
	EnvPubSubBillingTopic = "REPLENISH_PUBSUB_BILLING_TOPIC"

	EnvSquareToken = "REPLENISH_SQUARE_ACCESS_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
