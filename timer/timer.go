/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package timer defines the shared expiring-timer contract implemented by
// timer/list (sorted doubly linked list) and timer/heap (binary min-heap).
// Both give identical externally visible semantics: add, adjust-forward,
// delete, and expire-all-due, at one-second granularity over wall-clock
// seconds. Callers pick either implementation behind this contract.
package timer

// Callback is invoked, on the caller's own goroutine, when a timer expires
// during Tick. It must not block: the reactor calls Tick from its single
// event-loop goroutine.
type Callback[T any] func(payload T)

// Timer is a single expiry record. Expire is an absolute Unix second.
// Payload is the timer's non-owning back-reference to whatever it guards
// (a connection handle, typically); the timer never frees it.
//
// A Timer's identity for Add/Adjust/Delete purposes is its pointer value;
// each Structure implementation keeps its own bookkeeping (list node or
// heap slot) keyed by that pointer, so a Timer carries no
// implementation-specific state itself and can move between call sites
// freely between Add and Delete.
type Timer[T any] struct {
	Expire   int64
	Payload  T
	Callback Callback[T]
}

// Structure is the contract both timer/list and timer/heap satisfy.
//
// Add inserts a timer not currently held by the structure.
// Adjust repositions a timer already held, after its Expire field has been
// increased (pushed further into the future); the caller must not call
// Adjust after decreasing Expire.
// Delete removes a timer; its Callback is never invoked afterward.
// Tick expires every timer with Expire <= now, invoking each Callback
// exactly once and removing it from the structure, in non-decreasing
// expiry order.
type Structure[T any] interface {
	Add(t *Timer[T])
	Adjust(t *Timer[T])
	Delete(t *Timer[T])
	Tick(now int64)
	Len() int
}

// New constructs a timer record ready to be handed to a Structure's Add.
func New[T any](expire int64, payload T, cb Callback[T]) *Timer[T] {
	return &Timer[T]{Expire: expire, Payload: payload, Callback: cb}
}
