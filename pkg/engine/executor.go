package engine

import "sync"

// executor runs submitted jobs one at a time in submission order. A worker
// goroutine is started on demand and exits once the queue is empty.
type executor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (x *executor) submit(job func()) {
	x.mu.Lock()
	x.queue = append(x.queue, job)
	if x.running {
		x.mu.Unlock()
		return
	}
	x.running = true
	x.mu.Unlock()
	go x.drain()
}

func (x *executor) drain() {
	for {
		x.mu.Lock()
		if len(x.queue) == 0 {
			x.running = false
			x.mu.Unlock()
			return
		}
		job := x.queue[0]
		x.queue[0] = nil
		x.queue = x.queue[1:]
		x.mu.Unlock()
		job()
	}
}
