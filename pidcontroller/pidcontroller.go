/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package pidcontroller implements a tiny discrete PID (proportional,
// integral, derivative) controller used to generate a smoothed sequence of
// intermediate values between a start and an end point, instead of a single
// linear step.
package pidcontroller

import (
	"context"
	"math"
)

// maxSteps bounds the number of samples a Range call can produce, guarding
// against a misbehaving (e.g. zero-gain) controller looping forever.
const maxSteps = 64

// epsilon is the distance to the target under which the controller considers
// itself converged.
const epsilon = 1e-6

// PID is a minimal discrete PID controller over float64 values.
type PID struct {
	rateP float64
	rateI float64
	rateD float64
}

// New returns a PID controller with the given proportional, integral and
// derivative gains.
func New(rateP, rateI, rateD float64) *PID {
	return &PID{rateP: rateP, rateI: rateI, rateD: rateD}
}

// RangeCtx walks the controller from start to end, returning the successive
// values it visits (start and end included). The walk stops early if ctx is
// done.
func (p *PID) RangeCtx(ctx context.Context, start, end float64) []float64 {
	var (
		current  = start
		integral float64
		prevErr  float64
		out      = []float64{start}
	)

	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		errv := end - current
		if math.Abs(errv) <= epsilon {
			break
		}

		integral += errv
		derivative := errv - prevErr
		prevErr = errv

		step := p.rateP*errv + p.rateI*integral + p.rateD*derivative
		if step == 0 {
			break
		}

		// a step that reaches or passes end stops the walk; end is appended below
		if (end-(current+step))*errv <= 0 {
			break
		}

		current += step
		out = append(out, current)
	}

	if out[len(out)-1] != end {
		out = append(out, end)
	}

	return out
}

// Range is the context-free variant of RangeCtx.
func (p *PID) Range(start, end float64) []float64 {
	return p.RangeCtx(context.Background(), start, end)
}
