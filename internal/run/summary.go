package run

import (
	"fmt"
	"strings"
)

// MethodSummary holds one method's statistics over a completed run.
// MeanScore and MeanIoU are nil when no frame contributed a value.
type MethodSummary struct {
	Survived  int
	MeanScore *float64
	MeanIoU   *float64
}

// Summary is the final report of a comparison run.
type Summary struct {
	RunID       string
	TotalFrames int
	Methods     map[string]MethodSummary
	Order       []string
}

// String renders the survival report printed at the end of a run.
func (s *Summary) String() string {
	var b strings.Builder
	b.WriteString("=== Tracking survival summary ===\n")
	fmt.Fprintf(&b, "Total frames processed: %d\n", s.TotalFrames)

	for _, name := range s.Order {
		ms := s.Methods[name]
		fmt.Fprintf(&b, "%-9s: survived %d / %d frames", name, ms.Survived, s.TotalFrames)
		if ms.MeanScore != nil {
			fmt.Fprintf(&b, " (mean score %.3f)", *ms.MeanScore)
		}
		if ms.MeanIoU != nil {
			fmt.Fprintf(&b, " (mean IoU %.3f)", *ms.MeanIoU)
		}
		b.WriteByte('\n')
	}

	return b.String()
}
