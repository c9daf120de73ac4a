package config

import "os"

// Config holds server configuration.
type Config struct {
	Port         string
	LogLevel     string
	AppID        string
	GeminiAPIKey string
	GeminiModel  string

	// Document store. Driver is "sqlite" or "postgres".
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// Chain gateway. The ledger adapter reports itself unconfigured
	// when any of these are empty, and the orchestrator skips the
	// on-chain write.
	ChainGatewayURL string
	ChainContract   string
	TreasuryKey     string

	OTLPEndpoint string
	ProfilePath  string
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	appID := os.Getenv("APP_ID")
	if appID == "" {
		appID = "tribunal-dev"
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	driver := os.Getenv("STORE_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "tribunal.db"
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		AppID:           appID,
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     model,
		StoreDriver:     driver,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      sqlitePath,
		ChainGatewayURL: os.Getenv("CHAIN_GATEWAY_URL"),
		ChainContract:   os.Getenv("CHAIN_CONTRACT_ADDRESS"),
		TreasuryKey:     os.Getenv("TREASURY_PRIVATE_KEY"),
		OTLPEndpoint:    os.Getenv("OTLP_ENDPOINT"),
		ProfilePath:     os.Getenv("COURTROOM_PROFILE"),
	}
}
