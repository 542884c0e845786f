package store

import (
	"context"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

type UsageStore interface {
	Record(ctx context.Context, usage domain.UsageLog) error
	Totals(ctx context.Context) (domain.UsageTotals, error)
}
