package models

import "time"

// SystemMetrics is a point-in-time summary of request, cache and store instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StoreCommands            uint64    `json:"store_commands"`
	StoreCommandFailures     uint64    `json:"store_command_failures"`
	AverageStoreCommandMs    float64   `json:"average_store_command_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
