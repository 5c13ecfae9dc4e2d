// Package constants defines shared constants for the Redline auth core.
package constants

import "time"

// ServiceName identifies this service in logs, traces and kafka events.
const ServiceName = "redline-auth"

// ContextKey is the type used for context values set by this service.
type ContextKey string

const (
	// ContextKeyClaims carries verified token claims through a request.
	ContextKeyClaims ContextKey = "redline.claims"
	// ContextKeyRequestID carries the inbound request identifier.
	ContextKeyRequestID ContextKey = "redline.request_id"
)

// Token configuration defaults.
const (
	// DefaultSigningAlgorithm is the default HMAC signing algorithm.
	DefaultSigningAlgorithm = "HS256"
	// DefaultTokenTTL is the default bearer token lifetime.
	DefaultTokenTTL = 30 * time.Minute
)

// Synthetic identity returned by Verify while authentication is disabled.
const (
	BypassSubject = "dev-user"
	BypassRole    = "admin"
)

// Redis key prefixes.
const (
	// RevocationKeyPrefix prefixes blacklisted jti keys in redis.
	RevocationKeyPrefix = "redline:revoked:"
)

// Kafka defaults.
const (
	// DefaultRevocationTopic is the topic carrying revocation fan-out events.
	DefaultRevocationTopic = "redline.token.revocations"
	// RevocationConsumerGroup is shared by all service instances so every
	// instance's local blacklist receives each revocation event.
	RevocationConsumerGroup = "redline-revocation-consumers"
)

// LogLevel represents a logging verbosity level.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
