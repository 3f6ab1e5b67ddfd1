package pool

import (
	"sync"
	"time"
)

// shard is one lock-protected slot array plus local counters. Slots keep
// their logical index for their entire lifetime; grow appends to the end,
// shrink only ever removes from the end, so surviving low indices never
// move.
type shard[T any, P Poolable[T]] struct {
	mu sync.Mutex

	id    uint16
	slots []P

	busyCount int
	peakBusy  int

	leaseCount  uint64
	returnCount uint64

	lockWaitAttempts uint64
	lockWaitNanos    uint64

	alloc Allocator[T]
	sink  ErrorSink
	queue *backpressureQueue[T, P]
}

func (s *shard[T, P]) lock() {
	start := time.Now()
	s.mu.Lock()
	s.lockWaitAttempts++
	s.lockWaitNanos += uint64(time.Since(start).Nanoseconds())
}

func (s *shard[T, P]) unlock() {
	s.mu.Unlock()
}

// lease performs the per-shard linear scan for the lowest free, valid slot.
// Returns the zero value and false if the shard has no usable free slot.
func (s *shard[T, P]) lease() (P, bool) {
	s.lock()
	defer s.unlock()

	if s.busyCount >= len(s.slots) {
		var zero P
		return zero, false
	}

	for i, obj := range s.slots {
		if obj.isBusy() {
			continue
		}
		if !s.alloc.Validate(obj) {
			s.sink(KindInvalidObject, "skipping slot that failed validation on lease", i)
			continue
		}

		obj.setBusy(true)
		s.busyCount++
		s.leaseCount++
		if s.busyCount > s.peakBusy {
			s.peakBusy = s.busyCount
		}

		s.alloc.Reset(obj)
		s.alloc.OnReuse(obj)

		return obj, true
	}

	var zero P
	return zero, false
}

// verifyAndFree checks that slot still references obj, is busy, and passes
// Validate, and if so clears busy, decrements busyCount, and fires Reset.
// It then attempts an immediate hand-off to the oldest parked request,
// still holding the shard lock, per the documented lock order (shard, then
// queue).
//
// Returns (true, handedOff) on success, or (false, false) if the back
// pointer was stale or validation failed (InvalidObject); in that case no
// state is changed.
func (s *shard[T, P]) verifyAndFree(obj P, slot uint64) (ok bool, handedOff bool) {
	s.lock()
	defer s.unlock()

	if slot >= uint64(len(s.slots)) {
		return false, false
	}
	if s.slots[slot] != obj {
		return false, false
	}
	if !obj.isBusy() {
		return false, false
	}
	if !s.alloc.Validate(obj) {
		return false, false
	}

	obj.setBusy(false)
	s.busyCount--
	s.returnCount++
	s.alloc.Reset(obj)

	if s.queue != nil {
		s.queue.mu.Lock()
		if s.queue.size > 0 {
			head := s.queue.buf[s.queue.head]
			if s.alloc.Validate(obj) {
				s.queue.popFront()
				s.queue.mu.Unlock()

				obj.setBusy(true)
				s.busyCount++
				s.leaseCount++
				if s.busyCount > s.peakBusy {
					s.peakBusy = s.busyCount
				}
				s.alloc.OnReuse(obj)

				head.callback(obj, head.ctx)
				return true, true
			}
		}
		s.queue.mu.Unlock()
	}

	return true, false
}

// growBy appends n newly constructed objects to the shard. If Allocate
// fails partway through, the objects already appended stay appended: the
// shard is left at its new, partially grown size and the error is
// returned to the caller.
func (s *shard[T, P]) growBy(n int) (added int, err error) {
	s.lock()
	defer s.unlock()

	for i := 0; i < n; i++ {
		if uint64(len(s.slots)) >= MaxShardSlots {
			return added, ErrTooManySlots
		}

		payload, allocErr := s.alloc.Allocate()
		if allocErr != nil {
			return added, allocErr
		}

		obj := P(payload)
		obj.setLocation(s.id, uint64(len(s.slots)))
		obj.setBusy(false)
		s.alloc.OnConstruct(obj)
		s.slots = append(s.slots, obj)
		added++
	}

	return added, nil
}

// shrinkBy removes the n highest-indexed slots if they are all free.
// Returns ErrInsufficientFree without mutating state if a busy slot is
// found in the requested tail.
func (s *shard[T, P]) shrinkBy(n int) error {
	s.lock()
	defer s.unlock()

	if n == 0 {
		return nil
	}
	if n > len(s.slots) {
		return ErrInsufficientFree
	}

	tailStart := len(s.slots) - n
	for i := len(s.slots) - 1; i >= tailStart; i-- {
		if s.slots[i].isBusy() {
			return ErrInsufficientFree
		}
	}

	for i := len(s.slots) - 1; i >= tailStart; i-- {
		obj := s.slots[i]
		s.alloc.OnDestruct(obj)
		s.alloc.Release(obj)
	}

	s.slots = s.slots[:tailStart]
	if s.peakBusy > len(s.slots) {
		s.peakBusy = len(s.slots)
	}

	return nil
}

// snapshot copies this shard's counters under a brief lock, for the
// stats aggregator.
func (s *shard[T, P]) snapshot() (leases, returns, waitAttempts, waitNanos uint64, busy, size, peak int) {
	s.lock()
	defer s.unlock()
	return s.leaseCount, s.returnCount, s.lockWaitAttempts, s.lockWaitNanos, s.busyCount, len(s.slots), s.peakBusy
}

func (s *shard[T, P]) leaseCountOnly() uint64 {
	s.lock()
	defer s.unlock()
	return s.leaseCount
}

func (s *shard[T, P]) size() int {
	s.lock()
	defer s.unlock()
	return len(s.slots)
}

func (s *shard[T, P]) used() int {
	s.lock()
	defer s.unlock()
	return s.busyCount
}

// destroy fires OnDestruct/Release on every slot regardless of busy state.
// Called only from Pool.Destroy, which guarantees no concurrent callers.
func (s *shard[T, P]) destroy() {
	s.lock()
	defer s.unlock()
	for _, obj := range s.slots {
		s.alloc.OnDestruct(obj)
		s.alloc.Release(obj)
	}
	s.slots = nil
}
