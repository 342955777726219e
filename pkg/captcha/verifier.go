// Package captcha is a thin adapter around a Turnstile-style CAPTCHA
// verification service: only the interface the enrichment orchestrator
// depends on lives here.
package captcha

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/secscore-io/secscore/pkg/jsonutil"
)

const verifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Result is the outcome of a verification call.
type Result struct {
	Success    bool
	ErrorCodes []string
}

// Verifier calls an external CAPTCHA verification service.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (Result, error)
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// TurnstileVerifier implements Verifier against Cloudflare Turnstile's
// siteverify endpoint.
type TurnstileVerifier struct {
	client *resty.Client
	secret string
}

// NewTurnstileVerifier builds a verifier using secret as the shared site
// secret, with a bounded request timeout.
func NewTurnstileVerifier(secret string, timeout time.Duration) *TurnstileVerifier {
	client := resty.New()
	client.SetTimeout(timeout)
	return &TurnstileVerifier{client: client, secret: secret}
}

// Verify posts token (and, if known, the requester's remote IP) to the
// Turnstile siteverify endpoint.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	req := v.client.R().SetContext(ctx).SetFormData(map[string]string{
		"secret":   v.secret,
		"response": token,
	})
	if remoteIP != "" {
		req.SetFormData(map[string]string{"remoteip": remoteIP})
	}

	resp, err := req.Post(verifyURL)
	if err != nil {
		return Result{}, err
	}

	var decoded turnstileResponse
	if err := jsonutil.Unmarshal(resp.Body(), &decoded); err != nil {
		return Result{}, err
	}
	return Result{Success: decoded.Success, ErrorCodes: decoded.ErrorCodes}, nil
}

// NoopVerifier always succeeds; used when CAPTCHA is disabled in config so
// the orchestrator can depend on a single Verifier interface unconditionally.
type NoopVerifier struct{}

// Verify always reports success.
func (NoopVerifier) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	return Result{Success: true}, nil
}
