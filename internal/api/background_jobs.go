package api

import (
	"context"
	"time"
)

// StartBackgroundWorkers starts the async batch-run workers.
func (a *API) StartBackgroundWorkers(workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		go a.batchWorker(i)
	}
	a.log.Info("background workers started", "workers", workers)
}

// batchWorker drains queued batch runs. Results are logged per item; the
// caller already got its 202.
func (a *API) batchWorker(idx int) {
	for req := range a.batchQueue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		res, err := a.batch.Run(ctx, req)
		cancel()
		if err != nil {
			a.log.Error("async batch run failed",
				"worker", idx,
				"department", req.Department,
				"step", req.StepNumber,
				"err", err)
			continue
		}
		for _, item := range res.Items {
			if !item.OK {
				a.log.Warn("async batch item failed",
					"run_id", res.RunID,
					"candidate_id", item.CandidateID,
					"err", item.Error)
			}
		}
		a.log.Info("async batch run finished",
			"run_id", res.RunID,
			"scheduled", res.Scheduled,
			"failed", res.Failed)
	}
}
