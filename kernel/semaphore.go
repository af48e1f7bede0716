package kernel

// Semaphore is a counting semaphore. Waiters are served in FIFO order.
type Semaphore struct {
	_ [0]func() // prevent accidental copying.

	k       *Kernel
	created bool
	name    string
	count   uint32
	waiters []*TCB
}

func (s *Semaphore) removeWaiter(t *TCB) {
	s.waiters = removeTCB(s.waiters, t)
}

// Count returns the current semaphore count.
func (s *Semaphore) Count() uint32 {
	k := s.k
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return s.count
}

// SemaphoreCreate initializes s with the given count.
func (k *Kernel) SemaphoreCreate(s *Semaphore, name string, initial uint32) Status {
	if s == nil {
		return SemaphoreError
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if s.created {
		return SemaphoreError
	}
	s.k = k
	s.created = true
	s.name = name
	s.count = initial
	s.waiters = nil
	return Success
}

// SemaphoreGet takes one count from s, waiting up to wait ticks for one to
// become available. Waiting is only possible from thread context.
func (k *Kernel) SemaphoreGet(s *Semaphore, wait Ticks) Status {
	if s == nil {
		return SemaphoreError
	}
	self := k.lock()
	if !s.created || s.k != k {
		k.unlock(self)
		return SemaphoreError
	}
	if s.count > 0 {
		s.count--
		k.unlock(self)
		return Success
	}
	if wait == NoWait {
		k.unlock(self)
		return NotAvailable
	}
	if self == nil {
		k.unlock(self)
		return WaitError
	}

	k.removeReadyLocked(self)
	self.state = StateSemaphoreSusp
	self.status = Success
	self.sem = s
	s.waiters = append(s.waiters, self)
	if wait != WaitForever {
		k.addTimedLocked(self, wait)
	}
	k.unlock(self)

	k.mu.Lock()
	defer k.mu.Unlock()
	return self.status
}

// SemaphorePut gives one count to s, waking the oldest waiter if any.
func (k *Kernel) SemaphorePut(s *Semaphore) Status {
	return k.semaphorePut(s, 0)
}

// SemaphoreCeilingPut is SemaphorePut that fails with CeilingExceeded when
// the count would exceed ceiling. A ceiling of 1 makes s a binary semaphore.
func (k *Kernel) SemaphoreCeilingPut(s *Semaphore, ceiling uint32) Status {
	if ceiling == 0 {
		return SemaphoreError
	}
	return k.semaphorePut(s, ceiling)
}

func (k *Kernel) semaphorePut(s *Semaphore, ceiling uint32) Status {
	if s == nil {
		return SemaphoreError
	}
	self := k.lock()
	if !s.created || s.k != k {
		k.unlock(self)
		return SemaphoreError
	}
	if len(s.waiters) > 0 {
		t := s.waiters[0]
		s.removeWaiter(t)
		k.wakeLocked(t, Success)
		k.unlock(self)
		return Success
	}
	if ceiling != 0 && s.count >= ceiling {
		k.unlock(self)
		return CeilingExceeded
	}
	s.count++
	k.unlock(self)
	return Success
}

// SemaphoreDelete releases s. Threads still waiting on it return DeleteError.
func (k *Kernel) SemaphoreDelete(s *Semaphore) Status {
	if s == nil {
		return SemaphoreError
	}
	self := k.lock()
	if !s.created || s.k != k {
		k.unlock(self)
		return SemaphoreError
	}
	for len(s.waiters) > 0 {
		t := s.waiters[0]
		s.removeWaiter(t)
		k.wakeLocked(t, DeleteError)
	}
	s.created = false
	k.unlock(self)
	return Success
}
