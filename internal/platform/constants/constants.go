// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Token issuers and header names.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "veriface-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// Face verification includes a round-trip to the feature extractor, so
	// this is the ceiling for that call as well.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// ExtractorTimeout bounds one embedding extraction round-trip. Kept
	// below GlobalRequestTimeout so the extractor can never exhaust the
	// whole request budget.
	ExtractorTimeout = 15 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication & Sessions

const (
	// AuthIssuer is the standard 'iss' claim in both token families.
	AuthIssuer = "veriface.app"

	// AccessTokenTTL is the lifetime of a user access token. Deliberately
	// short: a demo session itself only lives a few minutes.
	AccessTokenTTL = 5 * time.Minute

	// TokenTypeBearer is the token_type value returned with issued tokens.
	TokenTypeBearer = "Bearer"

	// HeaderSessionToken carries the signed session credential. It is a
	// separate header from Authorization so a request can present both a
	// session token and a user access token at once.
	HeaderSessionToken = "Session-Token"

	// SweepInterval is how often the session registry proactively evicts
	// expired sessions. Lazy on-access eviction keeps the registry correct
	// even without the sweeper; the sweeper only bounds staleness.
	SweepInterval = 1 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # Uploads

const (
	// MaxImageUploadBytes bounds the multipart face image payload (8 MiB).
	MaxImageUploadBytes = 8 << 20
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)
