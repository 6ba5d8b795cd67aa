package duescan

import (
	"context"

	"github.com/bk-med/kanban/internal/authz"
)

func (w *Worker) runScanWithSystemContext(ctx context.Context) {
	ctx = authz.WithSystemBypass(ctx, "due-soon-scan")
	w.runScan(ctx)
}
