package upload

import "time"

// ProgressFunc receives upload progress in percent
type ProgressFunc func(percent int)

// Next returns the simulated progress following prev; it never goes above limit.
func Next(prev, step, limit int) int {
	if prev >= limit {
		return prev
	}
	return min(limit, prev+step)
}

type progressTicker struct {
	interval time.Duration
	step     int
	limit    int
	report   ProgressFunc

	// current is owned by the run goroutine until done is closed
	current int
	stop    chan struct{}
	done    chan struct{}
}

func startProgress(conf Config, report ProgressFunc) *progressTicker {
	p := &progressTicker{
		interval: conf.TickInterval,
		step:     conf.Step,
		limit:    conf.Cap,
		report:   report,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	p.report(0)
	go p.run()
	return p
}

func (p *progressTicker) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if next := Next(p.current, p.step, p.limit); next != p.current {
				p.current = next
				p.report(next)
			}
		}
	}
}

// Stop cancels the ticker and waits for the last report to return.
// It returns the last reported value.
func (p *progressTicker) Stop() int {
	close(p.stop)
	<-p.done
	return p.current
}
