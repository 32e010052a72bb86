package main

type Settings struct {
	Host        string `env:"HOST,default=0.0.0.0"`
	Port        int    `env:"PORT,default=8000"`
	BasePath    string `env:"BASE_PATH,default=/gateway"`
	LogEncoding string `env:"LOG_ENCODING,default=console"`

	HeartbeatIntervalMs  int `env:"HEARTBEAT_INTERVAL_MS,default=15000"`
	HeartbeatToleranceMs int `env:"HEARTBEAT_TOLERANCE_MS,default=30000"`

	MaxPayloadBytes   int `env:"MAX_PAYLOAD_BYTES,default=65536"`
	RateLimitBurst    int `env:"RATE_LIMIT_BURST,default=30"`
	RateLimitRefillMs int `env:"RATE_LIMIT_REFILL_MS,default=1000"`

	EventServiceURL       string `env:"EVENT_SERVICE_URL,default=http://localhost:8080/api"`
	EventPollMs           int    `env:"EVENT_POLL_MS,default=500"`
	EventBackoffMs        int    `env:"EVENT_BACKOFF_MS,default=5000"`
	EventRequestTimeoutMs int    `env:"EVENT_REQUEST_TIMEOUT_MS,default=10000"`
	ServiceKey            string `env:"SERVICE_KEY"`

	JWTSecret string `env:"JWT_SECRET"`
}
