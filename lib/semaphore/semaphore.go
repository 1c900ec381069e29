// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package semaphore bounds the amount of work in flight, counted in
// arbitrary units such as input bytes.
package semaphore

import (
	"context"
	"sync"
)

// A Semaphore hands out up to max units. A request for more than max
// units waits for all of them. A semaphore of zero capacity never blocks.
type Semaphore struct {
	max       int
	available int
	waiting   int
	mut       sync.Mutex
	cond      *sync.Cond
}

func New(max int) *Semaphore {
	if max < 0 {
		max = 0
	}
	s := Semaphore{
		max:       max,
		available: max,
	}
	s.cond = sync.NewCond(&s.mut)
	return &s
}

// Acquire takes size units, waiting until they are available or ctx is
// done. The returned function gives them back.
func (s *Semaphore) Acquire(ctx context.Context, size int) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size = min(size, s.max)

	// Wake the waiters when the context is done, so they can give up.
	stop := context.AfterFunc(ctx, func() {
		s.mut.Lock()
		s.cond.Broadcast()
		s.mut.Unlock()
	})
	defer stop()

	s.mut.Lock()
	defer s.mut.Unlock()
	s.waiting++
	defer func() { s.waiting-- }()
	for size > s.available {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.cond.Wait()
	}
	s.available -= size

	var once sync.Once
	return func() { once.Do(func() { s.give(size) }) }, nil
}

func (s *Semaphore) give(size int) {
	s.mut.Lock()
	s.available = min(s.available+size, s.max)
	s.cond.Broadcast()
	s.mut.Unlock()
}

// Available returns the number of units not handed out.
func (s *Semaphore) Available() int {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.available
}

// Waiting returns the number of callers blocked in Acquire.
func (s *Semaphore) Waiting() int {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.waiting
}
