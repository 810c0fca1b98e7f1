package shared

import "time"

// HTTP Client Configuration
const (
	DefaultHTTPTimeout     = 180 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultPort            = 80
)

// IBM Cloud endpoints
const (
	DefaultIAMURL     = "https://iam.cloud.ibm.com/identity/token"
	IAMAPIKeyGrant    = "urn:ibm:params:oauth:grant-type:apikey"
	DefaultWatsonxURL = "https://us-south.ml.cloud.ibm.com"
	DefaultModelID    = "granite-3b-instruct-v1"
)

// Decoding Configuration
const (
	DefaultMaxNewTokens   = 300
	DefaultDecodingMethod = "greedy"
)

// Cache Configuration
const (
	AnswerCacheTTL = 30 * time.Minute
)

// Inference log Configuration
const (
	LogFlushInterval = 1 * time.Minute
	LogRetryDelay    = 5 * time.Second
	MaxFlushRetries  = 3
)

// API Configuration
const (
	MaxInputLength = 4000
)
