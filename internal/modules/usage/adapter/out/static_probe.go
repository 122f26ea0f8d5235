package out

import (
	"context"
	"strings"

	"apptrack/internal/modules/usage/domain"
)

// StaticProbe always reports the same application. An empty name reports
// the desktop.
type StaticProbe struct {
	sample domain.Sample
}

func NewStaticProbe(application string) *StaticProbe {
	application = strings.TrimSpace(application)
	if application == "" {
		return &StaticProbe{sample: domain.DesktopSample()}
	}
	return &StaticProbe{sample: domain.Sample{Application: application, WindowTitle: application}}
}

func (p *StaticProbe) Sample(context.Context) (domain.Sample, error) {
	return p.sample, nil
}
