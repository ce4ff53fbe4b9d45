package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestTxn_ExcludesOtherCallers(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	tx := c.Begin(ctx)
	if !c.InTransaction() {
		t.Fatal("InTransaction() should be true after Begin")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Set(ctx, "dog", 1)
		c.Set(ctx, "cat", 2)
		c.Set(ctx, "mouse", 3)
	}()

	tx.Set(ctx, "dog", 2)
	tx.Set(ctx, "cat", 3)
	tx.Set(ctx, "mouse", 4)

	select {
	case <-done:
		t.Fatal("concurrent writer completed while the transaction held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	// Intermediate state seen inside the transaction is ours alone.
	if v, _ := tx.Get(ctx, "mouse"); v != 4 {
		t.Errorf("mouse inside txn = %d, want 4", v)
	}

	if err := tx.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer did not complete after End")
	}

	// The last lock holder wins.
	if v, _ := c.Get(ctx, "mouse"); v != 3 {
		t.Errorf("mouse after release = %d, want 3", v)
	}
	if v, _ := c.Get(ctx, "cat"); v != 2 {
		t.Errorf("cat after release = %d, want 2", v)
	}
	if c.InTransaction() {
		t.Error("InTransaction() should be false after End")
	}
}

func TestTxn_EndTwice(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	tx := c.Begin(ctx)
	if err := tx.End(); err != nil {
		t.Fatalf("first End failed: %v", err)
	}
	if err := tx.End(); !errors.Is(err, ErrTxnClosed) {
		t.Fatalf("second End = %v, want ErrTxnClosed", err)
	}

	// The lock is still usable: a second End must not have unlocked it again.
	tx2 := c.Begin(ctx)
	tx2.Set(ctx, "a", 1)
	if err := tx2.End(); err != nil {
		t.Fatalf("End on new txn failed: %v", err)
	}
}

func TestTxn_EndedHandleLocksPerCall(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	tx := c.Begin(ctx)
	_ = tx.End()
	if tx.Active() {
		t.Fatal("Active() should be false after End")
	}

	holder := c.Begin(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tx.Set(ctx, "late", 1)
	}()

	select {
	case <-done:
		t.Fatal("ended handle wrote while another transaction held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	_ = holder.End()
	<-done
	if v, _ := c.Get(ctx, "late"); v != 1 {
		t.Errorf("late = %d, want 1", v)
	}
}

func TestTransaction_ReleasesOnError(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := c.Transaction(ctx, func(tx *Txn[int]) error {
		tx.Set(ctx, "a", 1)
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Transaction error = %v, want sentinel", err)
	}
	if c.InTransaction() {
		t.Fatal("lock still held after Transaction returned an error")
	}
	// No rollback: writes made before the error stay.
	if v, ok := c.Get(ctx, "a"); !ok || v != 1 {
		t.Errorf("a = (%d, %v), want (1, true)", v, ok)
	}
}

func TestTransaction_ReleasesOnPanic(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = c.Transaction(ctx, func(tx *Txn[int]) error {
			panic("boom")
		})
	}()

	if c.InTransaction() {
		t.Fatal("lock still held after panic")
	}
	c.Set(ctx, "after", 1)
}

func TestTransaction_NilFunc(t *testing.T) {
	c := newTestCache[int](t, 2)
	if err := c.Transaction(context.Background(), nil); !errors.Is(err, ErrNilFunc) {
		t.Fatalf("Transaction(nil) = %v, want ErrNilFunc", err)
	}
	if c.InTransaction() {
		t.Fatal("nil func must not take the lock")
	}
}

func TestTransaction_ComputeProtocols(t *testing.T) {
	c := newTestCache[int](t, 3)
	ctx := context.Background()
	fn, calls := counter()

	err := c.Transaction(ctx, func(tx *Txn[int]) error {
		if v, err := tx.ComputeIfNotExists(ctx, "a", fn); err != nil || v != 1 {
			t.Errorf("ComputeIfNotExists = (%d, %v)", v, err)
		}
		if v, _ := tx.ComputeIfNotExists(ctx, "a", fn); v != 1 {
			t.Errorf("second ComputeIfNotExists = %d, want 1", v)
		}
		if v, _ := tx.ComputeIfNotValue(ctx, "a", fn, ptr(1)); v != 1 {
			t.Errorf("ComputeIfNotValue with matching target = %d, want 1", v)
		}
		if v, _ := tx.ComputeIfNotValue(ctx, "a", fn, ptr(9)); v != 2 {
			t.Errorf("ComputeIfNotValue with differing target = %d, want 2", v)
		}
		if v, _ := tx.ComputeAndSet(ctx, "b", fn); v != 3 {
			t.Errorf("ComputeAndSet = %d, want 3", v)
		}
		if !tx.Contains(ctx, "b") || tx.GetOrDefault(ctx, "zz", -1) != -1 {
			t.Error("Contains/GetOrDefault inside txn misbehaved")
		}
		if tx.Len() != 2 {
			t.Errorf("Len() inside txn = %d, want 2", tx.Len())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
	if *calls != 3 {
		t.Errorf("fn calls = %d, want 3", *calls)
	}
}

func TestTxn_EvictionInsideTransaction(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	_ = c.Transaction(ctx, func(tx *Txn[int]) error {
		tx.Set(ctx, "a", 1)
		tx.Set(ctx, "b", 2)
		tx.Get(ctx, "a")
		tx.Set(ctx, "c", 3)
		if got := tx.Keys(); !slices.Equal(got, []string{"a", "c"}) {
			t.Errorf("Keys() inside txn = %v, want [a c]", got)
		}
		return nil
	})
}

func TestTransactionAge(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	if c.TransactionAge() != 0 {
		t.Fatal("TransactionAge should be zero with no open transaction")
	}

	tx := c.Begin(ctx)
	time.Sleep(20 * time.Millisecond)
	if age := c.TransactionAge(); age < 20*time.Millisecond {
		t.Errorf("TransactionAge = %v, want >= 20ms", age)
	}
	// Len must not block behind the open transaction.
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	_ = tx.End()

	if c.TransactionAge() != 0 {
		t.Error("TransactionAge should reset after End")
	}
}

func TestTransaction_SerializesReadModifyWrite(t *testing.T) {
	c := newTestCache[int](t, 1)
	ctx := context.Background()
	c.Set(ctx, "n", 0)

	const workers = 20
	const increments = 100

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := 0; j < increments; j++ {
				err := c.Transaction(ctx, func(tx *Txn[int]) error {
					v, _ := tx.Get(ctx, "n")
					tx.Set(ctx, "n", v+1)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	if v, _ := c.Get(ctx, "n"); v != workers*increments {
		t.Errorf("n = %d, want %d (lost updates)", v, workers*increments)
	}
}

func TestTxn_ConcurrentBeginBlocks(t *testing.T) {
	c := newTestCache[int](t, 2)
	ctx := context.Background()

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	first := c.Begin(ctx)
	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		close(started)
		second := c.Begin(ctx)
		record("second")
		_ = second.End()
		close(finished)
	}()

	<-started
	time.Sleep(20 * time.Millisecond)
	record("first")
	_ = first.End()
	<-finished

	if !slices.Equal(order, []string{"first", "second"}) {
		t.Errorf("order = %v, want [first second]", order)
	}
}
