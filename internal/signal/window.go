package signal

// Window is a fixed-capacity ring buffer over float64 samples with
// oldest-first eviction. Capacity is set once at construction and
// never changes.
type Window struct {
	buf  []float64
	head int
	n    int
}

// NewWindow returns an empty window holding at most capacity samples.
// Push requires at least one slot.
func NewWindow(capacity int) *Window {
	return &Window{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample once the window is full.
func (w *Window) Push(v float64) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Len reports how many samples the window currently holds.
func (w *Window) Len() int {
	return w.n
}

// Mean returns the arithmetic mean of the current contents. The sum is
// recomputed from the live buffer on every call so results stay
// identical to a fresh pass, with no incremental-sum drift.
func (w *Window) Mean() float64 {
	if w.n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < w.n; i++ {
		sum += w.buf[(w.head+i)%len(w.buf)]
	}
	return sum / float64(w.n)
}
