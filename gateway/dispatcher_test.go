// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/contentgateway/gateway/crew"
	"axonflow/contentgateway/gateway/llm"
)

type fakeCrew struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	delay    time.Duration
	result   *crew.Result
	err      error
	calls    int
}

func (f *fakeCrew) Kickoff(ctx context.Context, inputs crew.Inputs) (*crew.Result, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	delay, result, err := f.delay, f.result, f.err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return result, err
}

type fakeLLM struct {
	resp  *llm.CompletionResponse
	err   error
	delay time.Duration
	calls int32
}

func (f *fakeLLM) Name() string                        { return "fake" }
func (f *fakeLLM) Type() llm.ProviderType              { return "fake" }
func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func TestGenerate_StructuredOutcome(t *testing.T) {
	fc := &fakeCrew{result: &crew.Result{
		Raw:  `{"posts":[{"titel":"A","text":"B"}]}`,
		JSON: map[string]interface{}{"posts": []interface{}{}},
	}}
	d := NewDispatcher(fc, &fakeLLM{}, 2, time.Second, time.Second)

	outcome := d.Generate(context.Background(), crew.Inputs{Topic: "Sale", Language: "DE"})
	assert.Equal(t, OutcomeStructured, outcome.Kind)
	assert.Equal(t, `{"posts":[{"titel":"A","text":"B"}]}`, string(outcome.Document))
}

func TestGenerate_RawTextOutcome(t *testing.T) {
	fc := &fakeCrew{result: &crew.Result{Raw: "plain text answer"}}
	d := NewDispatcher(fc, &fakeLLM{}, 2, time.Second, time.Second)

	outcome := d.Generate(context.Background(), crew.Inputs{})
	assert.Equal(t, OutcomeRawText, outcome.Kind)
	assert.Equal(t, "plain text answer", outcome.Text)
}

func TestGenerate_DependencyFailure(t *testing.T) {
	fc := &fakeCrew{err: errors.New("connection refused")}
	d := NewDispatcher(fc, &fakeLLM{}, 2, time.Second, time.Second)

	outcome := d.Generate(context.Background(), crew.Inputs{})
	require.Equal(t, OutcomeFailure, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrDependency)
}

func TestGenerate_Timeout(t *testing.T) {
	fc := &fakeCrew{delay: time.Second, result: &crew.Result{Raw: "late"}}
	d := NewDispatcher(fc, &fakeLLM{}, 2, 50*time.Millisecond, time.Second)

	outcome := d.Generate(context.Background(), crew.Inputs{})
	require.Equal(t, OutcomeFailure, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrTimeout)
}

// The ceiling bounds concurrent crew runs; excess requests queue for a
// slot instead of failing.
func TestGenerate_ConcurrencyCeiling(t *testing.T) {
	fc := &fakeCrew{delay: 50 * time.Millisecond, result: &crew.Result{Raw: "ok"}}
	d := NewDispatcher(fc, &fakeLLM{}, 2, 5*time.Second, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := d.Generate(context.Background(), crew.Inputs{})
			assert.Equal(t, OutcomeRawText, outcome.Kind)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&fc.peak), int32(2))
	fc.mu.Lock()
	assert.Equal(t, 6, fc.calls)
	fc.mu.Unlock()
}

// A waiter that cannot get a slot before the deadline fails as a
// timeout without ever reaching the engine.
func TestGenerate_QueueWaitHitsDeadline(t *testing.T) {
	fc := &fakeCrew{delay: 500 * time.Millisecond, result: &crew.Result{Raw: "ok"}}
	d := NewDispatcher(fc, &fakeLLM{}, 1, 100*time.Millisecond, time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Generate(context.Background(), crew.Inputs{})
	}()
	time.Sleep(20 * time.Millisecond) // let the first call take the slot

	outcome := d.Generate(context.Background(), crew.Inputs{})
	require.Equal(t, OutcomeFailure, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrTimeout)
	wg.Wait()
}

// A client disconnect is not a timeout: the deadline never passed, the
// caller walked away.
func TestGenerate_CallerCancellation(t *testing.T) {
	fc := &fakeCrew{delay: time.Second, result: &crew.Result{Raw: "late"}}
	d := NewDispatcher(fc, &fakeLLM{}, 2, 5*time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := d.Generate(ctx, crew.Inputs{})
	require.Equal(t, OutcomeFailure, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrCanceled)
	assert.NotErrorIs(t, outcome.Err, ErrTimeout)
}

func TestTransform_CallerCancellation(t *testing.T) {
	fl := &fakeLLM{delay: time.Second, resp: &llm.CompletionResponse{Content: "late"}}
	d := NewDispatcher(&fakeCrew{}, fl, 2, time.Second, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := d.Transform(ctx, "system", "prompt")
	assert.ErrorIs(t, err, ErrCanceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestTransform_Success(t *testing.T) {
	fl := &fakeLLM{resp: &llm.CompletionResponse{Content: "umformuliert"}}
	d := NewDispatcher(&fakeCrew{}, fl, 2, time.Second, time.Second)

	resp, err := d.Transform(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "umformuliert", resp.Content)
}

func TestTransform_Timeout(t *testing.T) {
	fl := &fakeLLM{delay: time.Second, resp: &llm.CompletionResponse{Content: "late"}}
	d := NewDispatcher(&fakeCrew{}, fl, 2, time.Second, 50*time.Millisecond)

	_, err := d.Transform(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTransform_DependencyFailure(t *testing.T) {
	fl := &fakeLLM{err: errors.New("502 bad gateway")}
	d := NewDispatcher(&fakeCrew{}, fl, 2, time.Second, time.Second)

	_, err := d.Transform(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrDependency)
}
