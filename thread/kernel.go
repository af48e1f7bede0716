package thread

import "rtthread/kernel"

// Kernel is the set of native services a Thread is built on. *kernel.Kernel
// implements it.
type Kernel interface {
	TimeGet() kernel.Ticks

	ThreadCreate(t *kernel.TCB, name string, entry func(input uintptr), input uintptr,
		stack []byte, prio, threshold uint, timeSlice kernel.Ticks, autoStart uint) kernel.Status
	ThreadSuspend(t *kernel.TCB) kernel.Status
	ThreadResume(t *kernel.TCB) kernel.Status
	ThreadTerminate(t *kernel.TCB) kernel.Status
	ThreadDelete(t *kernel.TCB) kernel.Status
	ThreadPriorityChange(t *kernel.TCB, prio uint) (uint, kernel.Status)
	ThreadIdentify() *kernel.TCB
	ThreadRelinquish()
	ThreadSleep(ticks kernel.Ticks) kernel.Status
	ThreadEntryExitNotify(t *kernel.TCB, fn kernel.NotifyFunc) kernel.Status
	InThreadContext() bool

	SemaphoreCreate(s *kernel.Semaphore, name string, initial uint32) kernel.Status
	SemaphoreGet(s *kernel.Semaphore, wait kernel.Ticks) kernel.Status
	SemaphoreCeilingPut(s *kernel.Semaphore, ceiling uint32) kernel.Status
	SemaphoreDelete(s *kernel.Semaphore) kernel.Status
}

var _ Kernel = (*kernel.Kernel)(nil)
