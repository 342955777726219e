package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/secscore-io/secscore/pkg/captcha"
	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/common/procfs"
	"github.com/secscore-io/secscore/pkg/cve/remote"
	"github.com/secscore-io/secscore/pkg/enrich"
	"github.com/secscore-io/secscore/pkg/kev"
	"github.com/secscore-io/secscore/pkg/secscore"
)

// App bundles every collaborator the HTTP handlers depend on: the
// composition root wires these once at startup.
type App struct {
	Orchestrator    *enrich.Orchestrator
	KEVCatalog      *kev.Catalog
	Config          *common.Config
	CaptchaVerifier captcha.Verifier
}

// registerHandlers wires the four external endpoints onto the
// provided router group.
func registerHandlers(group *gin.RouterGroup, app *App) {
	group.GET("/v1/cve/:cveId", app.handleGetMetadata)
	group.GET("/v1/enrich/cve/:cveId", app.handleEnrich)
	group.POST("/internal/refresh-kev", app.handleRefreshKEV)
	group.GET("/internal/refresh-kev", app.handleRefreshKEV)
	group.GET("/health", app.handleHealth)
}

// requestID returns the id attached by the requestID middleware, generating
// a fresh one as a defensive fallback if the middleware was bypassed.
func requestID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyRequestID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return uuid.NewString()
}

func (a *App) writeStandardHeaders(c *gin.Context) {
	c.Header(headerRequestID, requestID(c))
	c.Header(headerModelVersion, secscoreModelVersion())
}

func (a *App) writeError(c *gin.Context, err *common.StandardizedError) {
	c.JSON(err.StatusCode, gin.H{
		"requestId": requestID(c),
		"code":      err.Code,
		"message":   err.UserMessage,
	})
}

// handleGetMetadata implements GET /api/v1/cve/{cveId}.
func (a *App) handleGetMetadata(c *gin.Context) {
	a.writeStandardHeaders(c)

	cveID, ok := enrich.ValidateCVEID(c.Param("cveId"))
	if !ok {
		a.writeError(c, common.MapErrorWithCode(errMsg("invalid CVE identifier"), common.ErrCodeValidation))
		return
	}

	result, err := a.Orchestrator.GetMetadata(c.Request.Context(), cveID)
	if err != nil {
		a.writeUpstreamError(c, err)
		return
	}

	if result.CacheHit {
		c.Header(headerCache, cacheStatusHit)
	} else {
		c.Header(headerCache, cacheStatusMiss)
	}
	c.Header(headerCacheControl, metaCacheControl)
	c.JSON(http.StatusOK, result.Metadata)
}

// handleEnrich implements GET /api/v1/enrich/cve/{cveId}.
func (a *App) handleEnrich(c *gin.Context) {
	a.writeStandardHeaders(c)

	cveID, ok := enrich.ValidateCVEID(c.Param("cveId"))
	if !ok {
		a.writeError(c, common.MapErrorWithCode(errMsg("invalid CVE identifier"), common.ErrCodeValidation))
		return
	}

	if a.Config.CaptchaEnabled {
		token := c.GetHeader(headerCaptchaToken)
		if token == "" {
			a.writeError(c, common.MapErrorWithCode(errMsg("missing captcha token"), common.ErrCodeValidation))
			return
		}
		verdict, err := a.CaptchaVerifier.Verify(c.Request.Context(), token, c.ClientIP())
		if err != nil || !verdict.Success {
			c.Header(headerRequestID, requestID(c))
			c.JSON(http.StatusForbidden, gin.H{
				"requestId":  requestID(c),
				"code":       common.ErrCodeForbidden,
				"message":    "captcha verification failed",
				"errorCodes": verdict.ErrorCodes,
			})
			return
		}
	}

	result, err := a.Orchestrator.Enrich(c.Request.Context(), cveID)
	if err != nil {
		a.writeUpstreamError(c, err)
		return
	}

	if result.CacheHit {
		c.Header(headerCache, cacheStatusHit)
	} else {
		c.Header(headerCache, cacheStatusMiss)
	}
	if updatedAt := a.KEVCatalog.UpdatedAt(); updatedAt != "" {
		c.Header(headerKEVUpdatedAt, updatedAt)
	}
	c.Header(headerCacheControl, enrichCacheControl)
	c.JSON(http.StatusOK, result.Response)
}

// handleRefreshKEV implements the authenticated manual KEV refresh trigger.
// It calls Catalog.Refresh, the same method the scheduler calls directly.
func (a *App) handleRefreshKEV(c *gin.Context) {
	a.writeStandardHeaders(c)

	secret := c.GetHeader(headerCronSecret)
	if a.Config.InternalRefreshSecret == "" || secret != a.Config.InternalRefreshSecret {
		a.writeError(c, common.MapErrorWithCode(errMsg("unauthorized"), common.ErrCodeUnauthorized))
		return
	}

	res := a.KEVCatalog.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"changed":   res.Changed,
		"updatedAt": res.UpdatedAt,
	})
}

// handleHealth implements GET /api/health: system uptime (from
// /proc/uptime), memory usage percentage, and KEV dataset size and
// freshness. CPU usage is not reported.
func (a *App) handleHealth(c *gin.Context) {
	a.writeStandardHeaders(c)

	uptime, err := procfs.ReadUptime()
	if err != nil {
		common.Warn("health: reading uptime: %v", err)
	}
	memPercent, err := procfs.ReadMemoryUsage()
	if err != nil {
		common.Warn("health: reading memory usage: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"version":       common.Version,
		"kevEntries":    a.KEVCatalog.Size(),
		"kevUpdatedAt":  a.KEVCatalog.UpdatedAt(),
		"kevState":      a.KEVCatalog.State(),
		"uptimeSeconds": uptime.Seconds(),
		"memoryPercent": memPercent,
	})
}

// writeUpstreamError classifies an error from the orchestrator:
// NVD not-found becomes 404, everything else
// degrades to 500/502 by way of the error registry.
func (a *App) writeUpstreamError(c *gin.Context, err error) {
	if errors.Is(err, remote.ErrNotFound) {
		a.writeError(c, common.MapErrorWithCode(err, common.ErrCodeNotFound))
		return
	}
	a.writeError(c, common.MapError(err))
}

func secscoreModelVersion() string {
	return secscore.ModelVersion
}

type errMsg string

func (e errMsg) Error() string { return string(e) }
