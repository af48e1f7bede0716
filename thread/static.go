package thread

import "unsafe"

// Stack sizes for Static threads.
type (
	Stack512 [512]byte
	Stack1K  [1024]byte
	Stack2K  [2048]byte
	Stack4K  [4096]byte
	Stack8K  [8192]byte
)

// StackArray is a fixed-size stack buffer type.
type StackArray interface {
	Stack512 | Stack1K | Stack2K | Stack4K | Stack8K
}

// Static is a Thread that embeds its own stack, so the handle and its stack
// are a single allocation.
type Static[S StackArray] struct {
	Thread
	stack S
}

// NewStatic returns an inert handle whose stack is embedded in the handle.
func NewStatic[S StackArray](k Kernel, entry Entry, opts ...Option) *Static[S] {
	s := &Static[S]{}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&s.stack)), unsafe.Sizeof(s.stack))
	s.Thread.init(k, buf, entry, opts)
	return s
}
