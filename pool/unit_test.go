package pool

import "testing"

// testObject is the shared fixture used across this package's tests.
type testObject struct {
	Fields[testObject]
	ID    int
	Value string
}

func testAllocator() Allocator[testObject] {
	return Allocator[testObject]{
		Allocate: func() (*testObject, error) {
			return &testObject{ID: 1, Value: "test"}, nil
		},
		Release: func(*testObject) {},
	}
}

func TestFieldsLocationPacking(t *testing.T) {
	var f Fields[testObject]

	if f.isBusy() {
		t.Error("isBusy() should be false initially")
	}
	f.setBusy(true)
	if !f.isBusy() {
		t.Error("isBusy() should be true after setBusy(true)")
	}

	f.setLocation(3, 123456)
	shardID, slot := f.location()
	if shardID != 3 || slot != 123456 {
		t.Errorf("location() = (%d, %d), want (3, 123456)", shardID, slot)
	}
}

func TestFieldsLocationPackingMaxValues(t *testing.T) {
	var f Fields[testObject]
	f.setLocation(MaxShardCount, MaxShardSlots)
	shardID, slot := f.location()
	if shardID != MaxShardCount {
		t.Errorf("shardID = %d, want %d", shardID, MaxShardCount)
	}
	if slot != MaxShardSlots {
		t.Errorf("slot = %d, want %d", slot, MaxShardSlots)
	}
}

func TestAllocatorWithDefaults(t *testing.T) {
	a := testAllocator()
	withDefaults := a.withDefaults()

	if withDefaults.Reset == nil || withDefaults.Validate == nil ||
		withDefaults.OnConstruct == nil || withDefaults.OnDestruct == nil ||
		withDefaults.OnReuse == nil {
		t.Fatal("withDefaults() left a hook nil")
	}

	obj := &testObject{}
	if !withDefaults.Validate(obj) {
		t.Error("default Validate should accept a non-nil pointer")
	}
	var nilObj *testObject
	if withDefaults.Validate(nilObj) {
		t.Error("default Validate should reject a nil pointer")
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		n, shards    int
		base, rem    int
	}{
		{10, 4, 2, 2},
		{4, 2, 2, 0},
		{1, 4, 0, 1},
		{0, 4, 0, 0},
	}
	for _, tt := range tests {
		base, rem := partition(tt.n, tt.shards)
		if base != tt.base || rem != tt.rem {
			t.Errorf("partition(%d, %d) = (%d, %d), want (%d, %d)", tt.n, tt.shards, base, rem, tt.base, tt.rem)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	tests := map[ErrorKind]string{
		KindInvalidPool:      "InvalidPool",
		KindInvalidObject:    "InvalidObject",
		KindExhausted:        "Exhausted",
		KindAllocFailed:      "AllocFailed",
		KindInvalidSize:      "InvalidSize",
		KindInsufficientFree: "InsufficientFree",
		KindQueueFull:        "QueueFull",
		ErrorKind(99):        "Unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestBackpressureQueuePushPopFIFO(t *testing.T) {
	q := newBackpressureQueue[testObject, *testObject](2)

	if !q.push(parkedRequest[testObject, *testObject]{ctx: 1}) {
		t.Fatal("push 1 should succeed")
	}
	if !q.push(parkedRequest[testObject, *testObject]{ctx: 2}) {
		t.Fatal("push 2 should succeed")
	}
	if q.push(parkedRequest[testObject, *testObject]{ctx: 3}) {
		t.Fatal("push 3 should fail, queue is full")
	}

	first := q.popFront()
	if first.ctx != 1 {
		t.Errorf("popFront() ctx = %v, want 1", first.ctx)
	}
	second := q.popFront()
	if second.ctx != 2 {
		t.Errorf("popFront() ctx = %v, want 2", second.ctx)
	}
	if q.size != 0 {
		t.Errorf("size = %d, want 0", q.size)
	}
}

func TestBackpressureQueueGrowPreservesOrder(t *testing.T) {
	q := newBackpressureQueue[testObject, *testObject](2)
	q.push(parkedRequest[testObject, *testObject]{ctx: "a"})
	q.push(parkedRequest[testObject, *testObject]{ctx: "b"})

	// Rotate the ring so head != 0, to exercise grow's copy logic.
	q.popFront()
	q.push(parkedRequest[testObject, *testObject]{ctx: "c"})

	q.grow(2)
	if q.capacity() != 4 {
		t.Fatalf("capacity() = %d, want 4", q.capacity())
	}
	if q.growthEvents != 1 {
		t.Errorf("growthEvents = %d, want 1", q.growthEvents)
	}

	first := q.popFront()
	second := q.popFront()
	if first.ctx != "b" || second.ctx != "c" {
		t.Errorf("order after grow = (%v, %v), want (b, c)", first.ctx, second.ctx)
	}
}

func TestBackpressureQueueMaxSizeTracksHistoricalPeak(t *testing.T) {
	q := newBackpressureQueue[testObject, *testObject](4)
	q.push(parkedRequest[testObject, *testObject]{})
	q.push(parkedRequest[testObject, *testObject]{})
	q.popFront()
	q.popFront()

	if q.maxSize != 2 {
		t.Errorf("maxSize = %d, want 2 (should not decrease when queue drains)", q.maxSize)
	}
}
