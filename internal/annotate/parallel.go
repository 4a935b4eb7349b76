package annotate

import (
	"runtime"
	"sync"
)

// WorkItem is one taxon's aligned sequence queued for conversion.
type WorkItem struct {
	Seq      int // position in the alignment; drives output order
	Taxon    string
	Sequence string
}

// WorkResult carries one taxon's finished record, or the error that
// aborted it.
type WorkResult struct {
	Seq    int
	Taxon  string
	Record *Record
	Err    error
}

// ParallelConvert fans the queued taxa out to a pool of conversion
// workers. Workers report as they finish, so results arrive out of
// alignment order; pipe them through OrderedCollect to restore it.
// workers <= 0 starts one worker per CPU.
func (c *Converter) ParallelConvert(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				rec, err := c.Convert(item.Taxon, item.Sequence)
				results <- WorkResult{
					Seq:    item.Seq,
					Taxon:  item.Taxon,
					Record: rec,
					Err:    err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect invokes fn once per taxon in alignment order, holding
// back records that finished early until their turn comes. It returns
// when the results channel closes, or with fn's first error after
// draining the channel so no worker stays blocked on a send.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Unblock workers still sending.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
