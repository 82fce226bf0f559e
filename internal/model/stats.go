package model

// NodeStat aggregates timing and success figures for all nodes sharing a name,
// pooled across every task in the forest.
type NodeStat struct {
	Name         string  `json:"name"`
	Count        int     `json:"count"`
	TotalMS      int64   `json:"total_ms"`
	AvgMS        float64 `json:"avg_ms"`
	MinMS        int64   `json:"min_ms"`
	MaxMS        int64   `json:"max_ms"`
	SuccessCount int     `json:"success_count"`
	FailCount    int     `json:"fail_count"`
	SuccessRate  float64 `json:"success_rate"` // percentage in [0,100]
}

// PhaseStat splits a node's lifetime into a recognition phase (first to last
// recognition attempt) and an action phase (last attempt to node completion),
// aggregated per node name.
type PhaseStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"` // nodes with at least one recognition attempt

	RecoCount   int     `json:"reco_count"` // nodes contributing a recognition sample
	RecoTotalMS int64   `json:"reco_total_ms"`
	RecoAvgMS   float64 `json:"reco_avg_ms"`
	RecoMinMS   int64   `json:"reco_min_ms"`
	RecoMaxMS   int64   `json:"reco_max_ms"`

	ActionCount   int     `json:"action_count"`
	ActionTotalMS int64   `json:"action_total_ms"`
	ActionAvgMS   float64 `json:"action_avg_ms"`
	ActionMinMS   int64   `json:"action_min_ms"`
	ActionMaxMS   int64   `json:"action_max_ms"`

	TotalAttempts int     `json:"total_attempts"`
	AvgAttempts   float64 `json:"avg_attempts"`

	SuccessCount int     `json:"success_count"`
	FailCount    int     `json:"fail_count"`
	SuccessRate  float64 `json:"success_rate"`
}
