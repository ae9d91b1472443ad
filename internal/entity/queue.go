package entity

// MoveQueue keeps a player's occupied cells from oldest to newest.
// It is a fixed-capacity ring, so every operation is O(1).
type MoveQueue struct {
	buf  []int
	head int
	n    int
}

func NewMoveQueue(capacity int) MoveQueue {
	return MoveQueue{buf: make([]int, capacity)}
}

func (that *MoveQueue) Len() int {
	return that.n
}

func (that *MoveQueue) Cap() int {
	return len(that.buf)
}

func (that *MoveQueue) IsFull() bool {
	return that.n == len(that.buf)
}

// Oldest returns the cell that would be evicted next.
func (that *MoveQueue) Oldest() (int, bool) {
	if that.n == 0 {
		return 0, false
	}
	return that.buf[that.head], true
}

// PushBack appends the newest cell. The caller must evict before pushing into a full queue.
func (that *MoveQueue) PushBack(cell int) {
	if that.IsFull() {
		panic("move queue overflow")
	}
	that.buf[(that.head+that.n)%len(that.buf)] = cell
	that.n++
}

// PopFront removes and returns the oldest cell.
func (that *MoveQueue) PopFront() int {
	if that.n == 0 {
		panic("move queue underflow")
	}
	cell := that.buf[that.head]
	that.buf[that.head] = 0
	that.head = (that.head + 1) % len(that.buf)
	that.n--
	return cell
}

// PushFront puts a cell back into the oldest position.
func (that *MoveQueue) PushFront(cell int) {
	if that.IsFull() {
		panic("move queue overflow")
	}
	that.head = (that.head - 1 + len(that.buf)) % len(that.buf)
	that.buf[that.head] = cell
	that.n++
}

// PopBack removes and returns the newest cell.
func (that *MoveQueue) PopBack() int {
	if that.n == 0 {
		panic("move queue underflow")
	}
	idx := (that.head + that.n - 1) % len(that.buf)
	cell := that.buf[idx]
	that.buf[idx] = 0
	that.n--
	return cell
}

// Items lists the cells from oldest to newest.
func (that *MoveQueue) Items() []int {
	items := make([]int, 0, that.n)
	for i := range that.n {
		items = append(items, that.buf[(that.head+i)%len(that.buf)])
	}
	return items
}

func (that MoveQueue) clone() MoveQueue {
	buf := make([]int, len(that.buf))
	copy(buf, that.buf)
	return MoveQueue{buf: buf, head: that.head, n: that.n}
}
