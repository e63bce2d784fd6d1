package worker

// RefreshPayload is the body of a config.TopicSessionRefresh message. Zero
// days or limit fall back to the configured defaults.
type RefreshPayload struct {
	Days          int    `json:"days"`
	Limit         int    `json:"limit"`
	CorrelationID string `json:"correlation_id"`
}
