package kernel

import "errors"

// Status is the completion code returned by kernel services.
type Status uint8

const (
	Success Status = iota
	DeleteError
	PtrError
	SizeError
	PriorityError
	ThresholdError
	StartError
	CallerError
	ThreadError
	SuspendError
	ResumeError
	SuspendLifted
	WaitError
	WaitAborted
	WaitAbortError
	NotAvailable
	SemaphoreError
	CeilingExceeded
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case DeleteError:
		return "delete error"
	case PtrError:
		return "pointer error"
	case SizeError:
		return "size error"
	case PriorityError:
		return "priority error"
	case ThresholdError:
		return "threshold error"
	case StartError:
		return "start error"
	case CallerError:
		return "caller error"
	case ThreadError:
		return "thread error"
	case SuspendError:
		return "suspend error"
	case ResumeError:
		return "resume error"
	case SuspendLifted:
		return "suspend lifted"
	case WaitError:
		return "wait error"
	case WaitAborted:
		return "wait aborted"
	case WaitAbortError:
		return "wait abort error"
	case NotAvailable:
		return "not available"
	case SemaphoreError:
		return "semaphore error"
	case CeilingExceeded:
		return "ceiling exceeded"
	default:
		return "unknown"
	}
}

var (
	ErrDelete          = errors.New("kernel: thread not completed or terminated")
	ErrPtr             = errors.New("kernel: invalid pointer")
	ErrSize            = errors.New("kernel: invalid stack size")
	ErrPriority        = errors.New("kernel: invalid priority")
	ErrThreshold       = errors.New("kernel: invalid preemption threshold")
	ErrStart           = errors.New("kernel: invalid auto start")
	ErrCaller          = errors.New("kernel: invalid caller")
	ErrThread          = errors.New("kernel: invalid thread")
	ErrSuspend         = errors.New("kernel: thread cannot be suspended")
	ErrResume          = errors.New("kernel: thread was not suspended")
	ErrSuspendLifted   = errors.New("kernel: delayed suspension lifted")
	ErrWait            = errors.New("kernel: wait from non-thread context")
	ErrWaitAborted     = errors.New("kernel: wait aborted")
	ErrWaitAbort       = errors.New("kernel: thread not waiting")
	ErrNotAvailable    = errors.New("kernel: not available")
	ErrSemaphore       = errors.New("kernel: invalid semaphore")
	ErrCeilingExceeded = errors.New("kernel: semaphore ceiling exceeded")
	ErrUnknown         = errors.New("kernel: unknown status")
)

// Err returns the sentinel error for s, or nil for Success.
func (s Status) Err() error {
	switch s {
	case Success:
		return nil
	case DeleteError:
		return ErrDelete
	case PtrError:
		return ErrPtr
	case SizeError:
		return ErrSize
	case PriorityError:
		return ErrPriority
	case ThresholdError:
		return ErrThreshold
	case StartError:
		return ErrStart
	case CallerError:
		return ErrCaller
	case ThreadError:
		return ErrThread
	case SuspendError:
		return ErrSuspend
	case ResumeError:
		return ErrResume
	case SuspendLifted:
		return ErrSuspendLifted
	case WaitError:
		return ErrWait
	case WaitAborted:
		return ErrWaitAborted
	case WaitAbortError:
		return ErrWaitAbort
	case NotAvailable:
		return ErrNotAvailable
	case SemaphoreError:
		return ErrSemaphore
	case CeilingExceeded:
		return ErrCeilingExceeded
	default:
		return ErrUnknown
	}
}
