package entities

// Host mirrors the SSL Labs API host document.
// Only the fields the grade gate reads or reports are mapped.
type Host struct {
	Host            string     `json:"host"`
	Port            int        `json:"port"`
	Protocol        string     `json:"protocol"`
	IsPublic        bool       `json:"isPublic"`
	Status          string     `json:"status"`
	StatusMessage   string     `json:"statusMessage,omitempty"`
	StartTime       int64      `json:"startTime"`
	TestTime        int64      `json:"testTime,omitempty"`
	EngineVersion   string     `json:"engineVersion,omitempty"`
	CriteriaVersion string     `json:"criteriaVersion,omitempty"`
	Endpoints       []Endpoint `json:"endpoints"`
}

// Endpoint is one IP address reachable under a scanned hostname
type Endpoint struct {
	IPAddress         string `json:"ipAddress"`
	ServerName        string `json:"serverName,omitempty"`
	StatusMessage     string `json:"statusMessage,omitempty"`
	Grade             string `json:"grade,omitempty"`
	GradeTrustIgnored string `json:"gradeTrustIgnored,omitempty"`
	HasWarnings       bool   `json:"hasWarnings"`
	IsExceptional     bool   `json:"isExceptional"`
	Progress          int    `json:"progress"`
	Duration          int64  `json:"duration,omitempty"`
	Delegation        int    `json:"delegation,omitempty"`
}

// Assessment status values reported by the scanner
const (
	StatusDNS        = "DNS"
	StatusInProgress = "IN_PROGRESS"
	StatusReady      = "READY"
	StatusError      = "ERROR"
)

// Done reports whether the assessment reached a terminal status
func (h *Host) Done() bool {
	return h.Status == StatusReady || h.Status == StatusError
}

// ScannerInfo describes the scanner instance and the client's current capacity
type ScannerInfo struct {
	EngineVersion        string   `json:"engineVersion"`
	CriteriaVersion      string   `json:"criteriaVersion"`
	MaxAssessments       int      `json:"maxAssessments"`
	CurrentAssessments   int      `json:"currentAssessments"`
	NewAssessmentCoolOff int64    `json:"newAssessmentCoolOff"`
	Messages             []string `json:"messages"`
}

// AnalyzeOptions controls how a new assessment is requested
type AnalyzeOptions struct {
	Publish     bool
	FromCache   bool
	MaxAgeHours int
}
