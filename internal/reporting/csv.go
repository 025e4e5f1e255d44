package reporting

import (
	"fmt"
	"strings"

	"qvariance-lab/internal/domain"
)

// RenderSummaryCSV renders per-horizon summaries as CSV string.
func RenderSummaryCSV(summaries []domain.HorizonSummary) string {
	var sb strings.Builder

	sb.WriteString("T,count,mean_z,std_z,mean_z2,")
	sb.WriteString("mean_sigma,median_sigma,sigma_p10,sigma_p90\n")

	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			s.T,
			s.Count,
			s.MeanZ,
			s.StdZ,
			s.MeanZ2,
			s.MeanSigma,
			s.MedianSigma,
			s.SigmaP10,
			s.SigmaP90,
		))
	}

	return sb.String()
}
