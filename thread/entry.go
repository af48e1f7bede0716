package thread

// Entry is a thread body in the kernel's canonical shape: a function of one
// input word. The constructors below adapt other shapes to it; the Thread
// invokes every Entry through the same trampoline.
type Entry struct {
	fn    func(input uintptr)
	input uintptr
}

// Word is an integer type that fits in the kernel input word on every
// platform. 64-bit integers are left out because the word is 32 bits wide on
// 32-bit targets; pass them with FuncPtr.
type Word interface {
	~int | ~int8 | ~int16 | ~int32 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uintptr
}

// Func runs fn.
func Func(fn func()) Entry {
	return Entry{fn: func(uintptr) { fn() }}
}

// FuncWord runs fn with input as the kernel input word.
func FuncWord(fn func(input uintptr), input uintptr) Entry {
	return Entry{fn: fn, input: input}
}

// FuncInt runs fn(arg). The argument travels through the kernel input word;
// the conversion keeps its bit pattern, so negative values survive.
func FuncInt[T Word](fn func(T), arg T) Entry {
	return Entry{
		fn:    func(input uintptr) { fn(T(input)) },
		input: uintptr(arg),
	}
}

// FuncPtr runs fn(arg).
func FuncPtr[T any](fn func(*T), arg *T) Entry {
	return Entry{fn: func(uintptr) { fn(arg) }}
}

// Method runs m with obj as the receiver, e.g. Method(w, (*Worker).Run).
func Method[T any](obj *T, m func(*T)) Entry {
	return Entry{fn: func(uintptr) { m(obj) }}
}

// Input returns the kernel input word carried by e.
func (e Entry) Input() uintptr { return e.input }
