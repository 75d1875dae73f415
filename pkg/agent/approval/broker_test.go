package approval_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/agent/approval"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

func TestBroker_ApproveWakesWaiter(t *testing.T) {
	b := approval.New()
	id := model.NewApprovalID()

	done := make(chan approval.Decision, 1)
	go func() {
		d, err := b.Wait(context.Background(), id)
		if err != nil {
			t.Error(err)
		}
		done <- d
	}()

	// Give the waiter a moment to register
	time.Sleep(10 * time.Millisecond)
	gt.Bool(t, b.Resolve(id, true, "")).True()

	d := <-done
	gt.Bool(t, d.Approved).True()
}

func TestBroker_ResolveBeforeWait(t *testing.T) {
	b := approval.New()
	id := model.NewApprovalID()

	// Decision arrives before anyone waits on it
	gt.Bool(t, b.Resolve(id, false, "denied by user")).True()

	d, err := b.Wait(context.Background(), id)
	gt.NoError(t, err)
	gt.Bool(t, d.Approved).False()
	gt.Value(t, d.Reason).Equal("denied by user")
}

func TestBroker_RepeatedDecisionIsNoOp(t *testing.T) {
	b := approval.New()
	id := model.NewApprovalID()

	gt.Bool(t, b.Resolve(id, false, "denied by user")).True()

	// A later conflicting decision is discarded
	gt.Bool(t, b.Resolve(id, true, "")).False()

	d, ok := b.Decided(id)
	gt.Bool(t, ok).True()
	gt.Bool(t, d.Approved).False()
}

func TestBroker_IndependentResolution(t *testing.T) {
	b := approval.New()
	first := model.NewApprovalID()
	second := model.NewApprovalID()

	var wg sync.WaitGroup
	results := make(map[model.ApprovalID]approval.Decision)
	var mu sync.Mutex

	for _, id := range []model.ApprovalID{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := b.Wait(context.Background(), id)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			results[id] = d
			mu.Unlock()
		}()
	}

	time.Sleep(10 * time.Millisecond)

	// The user decides the second pending call before the first
	gt.Bool(t, b.Resolve(second, true, "")).True()
	gt.Bool(t, b.Resolve(first, false, "denied by user")).True()
	wg.Wait()

	gt.Bool(t, results[second].Approved).True()
	gt.Bool(t, results[first].Approved).False()
}

func TestBroker_Timeout(t *testing.T) {
	b := approval.New(approval.WithTimeout(20 * time.Millisecond))
	id := model.NewApprovalID()

	d, err := b.Wait(context.Background(), id)
	gt.NoError(t, err)
	gt.Bool(t, d.Approved).False()
	gt.Value(t, d.Reason).Equal(approval.ReasonExpired)

	// The expired decision is recorded; a late response is discarded
	gt.Bool(t, b.Resolve(id, true, "")).False()
}

func TestBroker_StaleDecisionsSwept(t *testing.T) {
	b := approval.New(approval.WithRetention(20 * time.Millisecond))

	old := model.NewApprovalID()
	gt.Bool(t, b.Resolve(old, true, "")).True()

	time.Sleep(30 * time.Millisecond)

	// Any later decision sweeps entries past the retention window
	gt.Bool(t, b.Resolve(model.NewApprovalID(), false, "denied by user")).True()

	_, ok := b.Decided(old)
	gt.Bool(t, ok).False()
}

func TestBroker_RecentDecisionSurvivesSweep(t *testing.T) {
	b := approval.New(approval.WithRetention(time.Minute))

	id := model.NewApprovalID()
	gt.Bool(t, b.Resolve(id, true, "")).True()
	gt.Bool(t, b.Resolve(model.NewApprovalID(), false, "denied by user")).True()

	d, ok := b.Decided(id)
	gt.Bool(t, ok).True()
	gt.Bool(t, d.Approved).True()
}

func TestBroker_ContextCancel(t *testing.T) {
	b := approval.New()
	id := model.NewApprovalID()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Wait(ctx, id)
	gt.Error(t, err)
}

