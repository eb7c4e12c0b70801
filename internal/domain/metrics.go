package domain

// EngineMetrics is the snapshot served by GET /v1/metrics/engine.
type EngineMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Deposits      int64   `json:"deposits"`
	Withdrawals   int64   `json:"withdrawals"`
	TransfersIn   int64   `json:"transfers_in"`
	TransfersOut  int64   `json:"transfers_out"`
	Lockouts      int64   `json:"lockouts"`
	Period        string  `json:"period"`
}
