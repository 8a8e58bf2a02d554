package game

import (
	"runtime"
	"sync"
)

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []int
}

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds the worker pool for force accumulation.
// Each particle's force is written by exactly one worker, and the gather
// order for a particle does not depend on which worker handles it, so
// results are identical to the single-threaded path.
type parallelState struct {
	scratches  []workerScratch
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// newParallelState sizes the pool. workers 0 means GOMAXPROCS; particle
// counts below threshold are always processed on the calling goroutine.
func newParallelState(workers, threshold int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, workers)
	for i := range scratches {
		scratches[i].Neighbors = make([]int, 0, 64)
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
		scratches:  scratches,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *Simulation, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// accumulateForces fills s.forces for every particle, on the calling
// goroutine or across the worker pool.
func (s *Simulation) accumulateForces() {
	n := s.store.Len()
	if n == 0 {
		return
	}

	if s.parallel.numWorkers == 1 || n < s.parallel.threshold {
		s.computeChunk(0, n, &s.parallel.scratches[0])
		return
	}
	s.computeParallel(n)
}

// computeParallel dispatches work to the worker pool.
func (s *Simulation) computeParallel(n int) {
	// Ensure workers are running
	if !s.parallel.running {
		s.parallel.startWorkers(s)
	}

	numWorkers := s.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		s.parallel.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-s.parallel.doneChan
	}
}

// computeChunk queries neighbours and accumulates forces for particles [i0, i1).
// It only reads the store and the index, and writes s.forces[i0:i1].
func (s *Simulation) computeChunk(i0, i1 int, scratch *workerScratch) {
	particles := s.store.Particles()
	radius := s.model.MaxDistance

	for i := i0; i < i1; i++ {
		pos := particles[i].Pos
		scratch.Neighbors = s.index.QueryNeighborsInto(scratch.Neighbors[:0], pos.X, pos.Y, radius, i)
		s.forces[i] = s.model.Accumulate(particles, i, scratch.Neighbors)
	}
}
