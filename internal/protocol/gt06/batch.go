package gt06

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result pairs one input buffer with its decode outcome.
type Result struct {
	Report *LocationReport
	Err    error
}

// DecodeAll decodes independent packets on a pool of workers. Results keep the
// order of packets. Packets not yet decoded when ctx is done get ctx.Err().
func DecodeAll(ctx context.Context, packets [][]byte, workers int) []Result {
	results := make([]Result, len(packets))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range packets {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(packets); j++ {
				results[j].Err = err
			}
			break
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			report, err := Decode(packets[i])
			results[i] = Result{Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
