package domain

// Settings are the key/value rows of app_settings with defaults applied.
// They gate the whole nurture engine, so reads go through the cache.
type Settings struct {
	AutoNurtureEnabled bool   `json:"autoNurtureEnabled"`
	IdleThresholdHours int    `json:"idleThresholdHours"`
	NurtureBatchSize   int    `json:"nurtureBatchSize"`
	CompanyName        string `json:"companyName"`
}

const (
	DefaultIdleThresholdHours = 48
	DefaultNurtureBatchSize   = 50
)

// GatewaySendResult is what the dispatch gateway returns for a send.
type GatewaySendResult struct {
	ExternalMessageID string `json:"externalMessageId"`
}

// Diagnosis is the read-only answer to "why is nurturing (not) firing for
// this lead". Issues and hints are parallel slices in evaluation order.
type Diagnosis struct {
	Lead     *Lead            `json:"lead"`
	WAStatus string           `json:"waStatus"`
	Settings Settings         `json:"settings"`
	State    *EngagementState `json:"state"`
	Signals  DiagnosisSignals `json:"signals"`
	Issues   []string         `json:"issues"`
	Hints    []string         `json:"hints"`
	Messages []Message        `json:"messages,omitempty"`
}

type DiagnosisSignals struct {
	LastInboundAt        *string `json:"lastInboundAt,omitempty"`
	LastManualFollowUpAt *string `json:"lastManualFollowUpAt,omitempty"`
	PendingFollowUps     int     `json:"pendingFollowUps"`
}
