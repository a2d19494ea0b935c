// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rollback

import (
	"context"
	"runtime"
	"sync"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

// maxBatchWorkers caps the worker pool regardless of CPU count. Rollback
// inversion is cheap per item; more workers only add scheduling overhead.
const maxBatchWorkers = 8

// GenerateBatch inverts independent diffs in parallel.
//
// # Description
//
// Results are identical to, and in the same order as, calling Generate on
// each diff sequentially. Items share no mutable state; each worker writes
// to its own index slot, so output order is stable regardless of worker
// scheduling.
//
// # Inputs
//
//   - ctx: Cancellation. Remaining items are skipped after cancellation,
//     leaving their output slots zero-valued.
//   - diffs: Independent forward diffs.
//
// # Outputs
//
//   - []diff.StatuteDiff: Rollbacks, output[i] inverting diffs[i].
func (p *Planner) GenerateBatch(ctx context.Context, diffs []diff.StatuteDiff) []diff.StatuteDiff {
	out := make([]diff.StatuteDiff, len(diffs))
	forEachIndexed(ctx, len(diffs), func(i int) {
		out[i] = p.Generate(diffs[i])
	})
	return out
}

// AnalyzeBatch analyzes independent diffs in parallel.
//
// Output order matches input order; see GenerateBatch for the pool
// semantics.
func (p *Planner) AnalyzeBatch(ctx context.Context, diffs []diff.StatuteDiff) []Analysis {
	out := make([]Analysis, len(diffs))
	forEachIndexed(ctx, len(diffs), func(i int) {
		out[i] = p.Analyze(ctx, diffs[i])
	})
	return out
}

// forEachIndexed runs fn(i) for i in [0,n) on a bounded worker pool.
//
// Index slots make the result order independent of scheduling. Small
// batches run inline to avoid goroutine overhead.
func forEachIndexed(ctx context.Context, n int, fn func(i int)) {
	if n == 0 {
		return
	}

	workers := min(n, min(runtime.NumCPU(), maxBatchWorkers))
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				return
			}
			fn(i)
		}
		return
	}

	work := make(chan int, n)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					return
				}
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
}
