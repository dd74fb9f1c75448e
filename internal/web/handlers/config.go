package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/database"
)

// ConfigHandler reports the effective matching configuration
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	IoUThreshold   float64 `json:"iou_threshold"`
	QualityFilter  string  `json:"quality_filter"`
	ResultStore    string  `json:"result_store,omitempty"`
	ReindexEnabled bool    `json:"reindex_enabled"`
	ResultsQueued  bool    `json:"results_queued"`
}

// Get returns the configuration without credentials
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		IoUThreshold:   h.config.Matching.IoUThreshold,
		QualityFilter:  h.config.Matching.QualityFilter,
		ResultStore:    database.BackendName(),
		ReindexEnabled: h.config.AWS.Region != "",
		ResultsQueued:  h.config.Queues.ResultsURL != "",
	})
}
