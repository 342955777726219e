package secscore

import (
	"fmt"
	"strings"
)

// ExplanationContext carries everything BuildExplanation needs to render the
// ordered entry list.
type ExplanationContext struct {
	Category   string
	Params     ModelParams
	Weeks      float64
	Result     ScoreResult
	KEV        bool
	Exploits   []ExploitEvidence
	EPSS       *EPSSSignal
	CVSSBase   *float64
}

// BuildExplanation renders the fixed, ordered explanation sequence. Entries
// that don't apply (no KEV, no exploit evidence, no EPSS) are omitted; the
// temporal-model and final-score entries are always present.
func BuildExplanation(ctx ExplanationContext) []ExplanationEntry {
	entries := make([]ExplanationEntry, 0, 6)

	entries = append(entries, ExplanationEntry{
		Title: "Temporal model",
		Detail: fmt.Sprintf(
			"category=%s mu=%.2f lambda=%.2f kappa=%.2f weeks=%.2f exploitProb=%.3f E_S=%.3f K=%.1f",
			ctx.Category, ctx.Params.Mu, ctx.Params.Lambda, ctx.Params.Kappa,
			ctx.Weeks, ctx.Result.ExploitProb, ctx.Result.ExploitMaturity, ctx.Result.TemporalKernel,
		),
		Source: "secscore",
	})

	if ctx.KEV {
		entries = append(entries, ExplanationEntry{
			Title:  "CISA KEV",
			Detail: fmt.Sprintf("listed in the CISA KEV catalog; floor of %.1f applied", KEVMinFloor),
			Source: "cisa-kev",
		})
	}

	if len(ctx.Exploits) > 0 {
		detail := "public proof-of-concept exploit available"
		if d := ctx.Exploits[0].PublishedDate; d != nil && *d != "" {
			detail = fmt.Sprintf("public proof-of-concept exploit available (published %s)", formatDateOnly(*d))
		}
		entries = append(entries, ExplanationEntry{
			Title:  "Exploit PoC",
			Detail: detail,
			Source: "exploitdb",
		})
	}

	if ctx.EPSS != nil {
		bonus := EPSSBlendWeight * ctx.EPSS.Score
		entries = append(entries, ExplanationEntry{
			Title: "EPSS",
			Detail: fmt.Sprintf(
				"added +%.2f from EPSS score %.3f (percentile %.3f)",
				bonus, ctx.EPSS.Score, ctx.EPSS.Percentile,
			),
			Source: "epss",
		})
	}

	if ctx.CVSSBase != nil {
		entries = append(entries, ExplanationEntry{
			Title:  "CVSS Base",
			Detail: fmt.Sprintf("CVSS base score %.1f used for kernel", *ctx.CVSSBase),
			Source: "cvss",
		})
	} else {
		entries = append(entries, ExplanationEntry{
			Title:  "CVSS Missing",
			Detail: "no CVSS base score available; temporal kernel defaulted to 0",
			Source: "cvss",
		})
	}

	entries = append(entries, ExplanationEntry{
		Title:  "SecScore",
		Detail: fmt.Sprintf("final SecScore %.1f", ctx.Result.SecScore),
		Source: "secscore",
	})

	return entries
}

// formatDateOnly trims an ISO-8601 timestamp to its YYYY-MM-DD date portion.
func formatDateOnly(s string) string {
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		return s[:idx]
	}
	return s
}
