/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tables

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestDebouncerRunsLastCallOnly(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, 300*time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	var last atomic.Value
	done := make(chan struct{}, 3)
	for _, v := range []string{"a", "ab", "abc"} {
		d.Call(func() {
			runs.Add(1)
			last.Store(v)
			done <- struct{}{}
		})
	}
	assert.True(t, d.Pending())

	clock.Advance(300 * time.Millisecond)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected the debounced call to run")
	}
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, "abc", last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncerStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, time.Second)

	ran := make(chan struct{}, 1)
	d.Call(func() { ran <- struct{}{} })
	d.Stop()
	d.Call(func() { ran <- struct{}{} })
	clock.Advance(2 * time.Second)

	select {
	case <-ran:
		t.Fatal("Expected no call after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	assert.False(t, d.Pending())
}
