package reporting

import (
	"fmt"
	"strings"
	"time"

	"qvariance-lab/internal/idhash"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# q-variance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Runs: %d\n\n", len(r.Runs)))

	if len(r.Runs) == 0 {
		sb.WriteString("No runs available.\n")
		return sb.String()
	}

	for _, rr := range r.Runs {
		renderRun(&sb, rr)
	}

	return sb.String()
}

func renderRun(sb *strings.Builder, rr RunReport) {
	run := rr.Run
	p := run.Params

	sb.WriteString(fmt.Sprintf("## %s\n\n", run.Ticker))
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", run.RunID))
	sb.WriteString(fmt.Sprintf("| Days | %d |\n", p.NDays))
	sb.WriteString(fmt.Sprintf("| Burn-in | %d |\n", p.BurnIn))
	sb.WriteString(fmt.Sprintf("| s0 | %g |\n", p.S0))
	sb.WriteString(fmt.Sprintf("| sigma0 | %g |\n", p.Sigma0))
	sb.WriteString(fmt.Sprintf("| kappa | %g |\n", p.Kappa))
	sb.WriteString(fmt.Sprintf("| c_int | %g |\n", p.CInt))
	sb.WriteString(fmt.Sprintf("| a_shape | %g |\n", p.AShape))
	sb.WriteString(fmt.Sprintf("| lam_cap | %g |\n", p.LamCap))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", p.Seed))
	sb.WriteString(fmt.Sprintf("| Params hash | %s |\n", idhash.ComputeParamsHash(p)))
	sb.WriteString(fmt.Sprintf("| Path length | %d |\n", run.PathLen))
	sb.WriteString(fmt.Sprintf("| Dataset rows | %d |\n", run.RowCount))
	sb.WriteString("\n")

	if len(rr.Stats) > 0 {
		sb.WriteString("### Window Accounting\n\n")
		sb.WriteString("| T | Windows | Dropped | Emitted | Mean z_raw |\n")
		sb.WriteString("|---|---------|---------|---------|------------|\n")
		for _, s := range rr.Stats {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %.6f |\n",
				s.T, s.RawWindows, s.Dropped, s.Emitted, s.MeanZRaw))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Horizon Summary\n\n")
	if len(rr.Summaries) > 0 {
		sb.WriteString("| T | Rows | Mean z | Std z | Mean z^2 | Mean sigma | Median sigma | sigma P10 | sigma P90 |\n")
		sb.WriteString("|---|------|--------|-------|----------|------------|--------------|-----------|-----------|\n")
		for _, s := range rr.Summaries {
			sb.WriteString(fmt.Sprintf("| %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				s.T, s.Count, s.MeanZ, s.StdZ, s.MeanZ2,
				s.MeanSigma, s.MedianSigma, s.SigmaP10, s.SigmaP90))
		}
	} else {
		sb.WriteString("No dataset rows.\n")
	}
	sb.WriteString("\n")

	if len(rr.Curve) > 0 {
		sb.WriteString(fmt.Sprintf("### q-variance Curve (T=%d)\n\n", rr.CurveHorizon))
		sb.WriteString("| sigma low | sigma high | Mean sigma | Mean z^2 | Rows |\n")
		sb.WriteString("|-----------|------------|------------|----------|------|\n")
		for _, c := range rr.Curve {
			sb.WriteString(fmt.Sprintf("| %.4f | %.4f | %.4f | %.4f | %d |\n",
				c.SigmaLow, c.SigmaHigh, c.MeanSigma, c.MeanZ2, c.Count))
		}
		sb.WriteString("\n")
	}
}
