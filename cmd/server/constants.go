package main

// HTTP header names shared across handlers.
const (
	headerRequestID    = "X-Request-Id"
	headerCache        = "X-Cache"
	headerModelVersion = "SecScore-Model-Version"
	headerKEVUpdatedAt = "X-KEV-Updated-At"
	headerCaptchaToken = "X-Captcha-Token"
	headerCronSecret   = "x-cron-secret"
	headerCacheControl = "Cache-Control"
)

const (
	cacheStatusHit  = "HIT"
	cacheStatusMiss = "MISS"

	// enrichCacheControl is the caching posture for enrichment responses.
	enrichCacheControl = "public, max-age=3600, stale-while-revalidate=86400"
	// metaCacheControl is the caching posture for the bare metadata
	// endpoint: the same max-age, without stale-while-revalidate.
	metaCacheControl = "public, max-age=3600"
)
