package seeds

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/abulimen/pnode-watch/internal/models"
)

// Coordinator runs one telemetry query against the configured seed list under
// a failover policy. Both strategies produce the same contract: the pod list
// of exactly one seed, or a terminal error for this poll cycle.
type Coordinator struct {
	client  *Client
	sources []string
}

func NewCoordinator(client *Client, sources []string) *Coordinator {
	return &Coordinator{
		client:  client,
		sources: sources,
	}
}

type queryResult struct {
	pods     []models.RawPod
	err      *SourceError
	settleAt int32
}

// QueryAll queries every seed simultaneously, waits for all of them to settle,
// then scans in seed-list order and returns the first success. The
// wait-for-all barrier is intentional: it keeps seed selection deterministic
// instead of racing on network jitter. Used by the interactive path.
func (c *Coordinator) QueryAll(ctx context.Context) ([]models.RawPod, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}

	results := make([]queryResult, len(c.sources))
	var settled int32
	var wg sync.WaitGroup

	for i, source := range c.sources {
		wg.Add(1)
		go func(i int, source string) {
			defer wg.Done()
			result, err := c.client.Query(ctx, source, PodsMethod)
			results[i].settleAt = atomic.AddInt32(&settled, 1)
			if err != nil {
				results[i].err = asSourceError(source, err)
				return
			}
			results[i].pods = result.Pods
		}(i, source)
	}
	wg.Wait()

	for i := range results {
		if results[i].err == nil {
			if i > 0 {
				log.Printf("seed %s selected after %d earlier seed(s) failed", c.sources[i], i)
			}
			return results[i].pods, nil
		}
	}

	return nil, c.exhausted(results)
}

// QuerySequential tries seeds one at a time in order and stops at the first
// seed whose response carries a non-empty pod list. Slower in the worst case
// but never opens more than one outbound connection. Used by the batch path.
func (c *Coordinator) QuerySequential(ctx context.Context) ([]models.RawPod, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}

	var failures []*SourceError
	for _, source := range c.sources {
		result, err := c.client.Query(ctx, source, PodsMethod)
		if err != nil {
			failures = append(failures, asSourceError(source, err))
			continue
		}
		if len(result.Pods) == 0 {
			failures = append(failures, &SourceError{Source: source, Cause: fmt.Errorf("empty pod list")})
			continue
		}
		return result.Pods, nil
	}

	return nil, &ExhaustedError{Errors: failures}
}

// exhausted builds the aggregate failure for a fan-out in which no seed
// succeeded, noting which seed settled first since that is the seed a
// cancel-on-first race would have committed to.
func (c *Coordinator) exhausted(results []queryResult) *ExhaustedError {
	agg := &ExhaustedError{}
	first := -1
	for i := range results {
		agg.Errors = append(agg.Errors, results[i].err)
		if first == -1 || results[i].settleAt < results[first].settleAt {
			first = i
		}
	}
	if first >= 0 {
		log.Printf("all seeds failed; %s settled first", c.sources[first])
	}
	return agg
}

func asSourceError(source string, err error) *SourceError {
	if se, ok := err.(*SourceError); ok {
		return se
	}
	return &SourceError{Source: source, Cause: err}
}
