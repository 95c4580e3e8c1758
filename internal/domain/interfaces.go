package domain

import (
	"context"
)

// Predictor sends one request snapshot to the prediction service. Every
// failure is reported as a *PredictionError.
type Predictor interface {
	Predict(ctx context.Context, req *PredictionRequest) (*PredictionResponse, error)
}

// SnapshotSource produces an independent request snapshot of the current
// inputs.
type SnapshotSource interface {
	Snapshot() *PredictionRequest
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetPredictorConfig() *PredictorConfig
	GetServerConfig() *ServerConfig
	Validate() error
}
