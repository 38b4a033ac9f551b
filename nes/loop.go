package nes

import (
	"log"
	"time"
)

// Start runs the console on its own goroutine until Stop or a fault.
func (c *Console) Start() error {
	if c.cart == nil {
		return ErrNoCartridge
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running.Load() {
		return ErrRunning
	}
	c.err = nil
	c.stop.Store(false)
	c.done = make(chan struct{})
	c.quit = make(chan struct{})
	c.running.Store(true)
	go c.loop(c.done, c.quit)
	return nil
}

// Stop asks the loop to exit at the next instruction boundary and waits
// for it. It is a no-op when the loop is not running.
func (c *Console) Stop() {
	c.mu.Lock()
	done := c.done
	if c.quit != nil {
		c.stop.Store(true)
		close(c.quit)
		c.quit = nil
	}
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether the loop goroutine is active.
func (c *Console) Running() bool {
	return c.running.Load()
}

// Wait blocks until the loop exits and returns the fault that ended it,
// or nil after Stop.
func (c *Console) Wait() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Console) loop(done, quit chan struct{}) {
	defer close(done)
	defer c.running.Store(false)

	var tick <-chan time.Time
	if c.cfg.Throttle {
		t := time.NewTicker(FramePeriod)
		defer t.Stop()
		tick = t.C
	}

	for !c.stop.Load() {
		_, ready, err := c.advance()
		if err != nil {
			c.fault(err)
			return
		}
		if ready && tick != nil {
			select {
			case <-tick:
			case <-quit:
				return
			}
		}
	}
}

func (c *Console) fault(err error) {
	log.Printf("nes: emulation stopped: %v", err)
	c.mu.Lock()
	c.err = err
	f := c.onFault
	c.mu.Unlock()
	if f != nil {
		f(err)
	}
}

// do runs f between two instructions. While the loop is running it is
// parked on exec until f returns.
func (c *Console) do(f func()) {
	c.exec.Lock()
	defer c.exec.Unlock()
	f()
}
