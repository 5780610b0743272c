package config

const (
	EnvPrefix = "storefront"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvAppPort          = "STOREFRONT_APP_PORT"
	EnvCatalogBaseURL   = "STOREFRONT_CATALOG_BASE_URL"
	EnvOptimizerBaseURL = "STOREFRONT_OPTIMIZER_BASE_URL"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
)
