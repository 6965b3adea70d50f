package cpu

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum workgroup count to fan out to workers.
// Below this, running inline is faster than the channel round trips.
const parallelThreshold = 4

// workChunk is a range of linear workgroup indices for one worker.
type workChunk struct {
	fn         func(gx, gy int)
	groupsX    int
	start, end int
}

// pool is a persistent set of worker goroutines executing dispatch chunks.
type pool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{numWorkers: workers}
}

// start launches the worker goroutines.
func (p *pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *pool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			runGroups(chunk.fn, chunk.groupsX, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run executes fn for every workgroup of a gx by gy grid and returns when
// all of them have finished.
func (p *pool) run(fn func(gx, gy int), groupsX, groupsY int) {
	n := groupsX * groupsY
	if n < parallelThreshold || p.numWorkers == 1 {
		runGroups(fn, groupsX, 0, n)
		return
	}
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{fn: fn, groupsX: groupsX, start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

func runGroups(fn func(gx, gy int), groupsX, start, end int) {
	for g := start; g < end; g++ {
		fn(g%groupsX, g/groupsX)
	}
}
