package constants

import "time"

const (
	AlgSha256              = "sha256"
	ArtifactSourceFile     = "file"
	ArtifactSourceS3       = "s3"
	BaselineSourceManifest = "manifest"
	BaselineSourceRedis    = "redis"
	DigestChunkSize        = 8 * 1024
	TopicIntegrityAlert    = "integrity_alert_topic"
)

// Threat level names as they appear in logs, JSON, config and the
// artifact registry.
const (
	ThreatNone     = "NONE"
	ThreatLow      = "LOW"
	ThreatMedium   = "MEDIUM"
	ThreatHigh     = "HIGH"
	ThreatCritical = "CRITICAL"
)

// Integrity status names.
const (
	StatusSecure      = "SECURE"
	StatusMonitoring  = "MONITORING"
	StatusCompromised = "COMPROMISED"
	StatusOffline     = "OFFLINE"
)

// Response paths. These are recorded on alerts so consumers know
// which part of the pipeline handled a sweep.
const (
	ActionLogForAnalysis    = "log_for_analysis"
	ActionEnhanceMonitoring = "enhance_monitoring"
	ActionDefensiveMeasures = "defensive_measures"
	ActionEmergencyLockdown = "emergency_lockdown"
)

const (
	DefaultSweepInterval   = 5 * time.Second
	DefaultBackoffInterval = 10 * time.Second
	DefaultHistoryLimit    = 500
	DefaultRedisBaseline   = "integrity:baseline"
	RedisKeyPosture        = "integrity:posture"
	RedisKeyViolations     = "integrity:violations"
)

var ResponseActions []string = []string{
	ActionLogForAnalysis,
	ActionEnhanceMonitoring,
	ActionDefensiveMeasures,
	ActionEmergencyLockdown,
}
