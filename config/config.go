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

// Package config holds the engine's static configuration: listen
// address, document root, reactor trigger mode, worker pool sizing,
// eviction timing, and logging. It is populated either from a file via
// viper or from the legacy positional command-line form, and validated
// before the engine ever starts.
package config

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/sabouaram/reactorhttp/errors"
	libdur "github.com/sabouaram/reactorhttp/duration"
	logcfg "github.com/sabouaram/reactorhttp/logger/config"
)

// Config is the full set of knobs the engine needs to start serving.
type Config struct {
	// Bind is the listen address, e.g. "0.0.0.0:8080".
	Bind string `mapstructure:"bind" json:"bind" yaml:"bind" toml:"bind" validate:"required,hostname_port"`

	// DocRoot is the filesystem root static GET requests are resolved
	// against.
	DocRoot string `mapstructure:"doc_root" json:"doc_root" yaml:"doc_root" toml:"doc_root" validate:"required,dir"`

	// EdgeTriggered selects edge-triggered client-socket readiness
	// (drain-until-EAGAIN) over level-triggered.
	EdgeTriggered bool `mapstructure:"edge_triggered" json:"edge_triggered" yaml:"edge_triggered" toml:"edge_triggered"`

	// Workers is the fixed worker pool size.
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers" toml:"workers" validate:"min=1"`

	// WorkQueueSize bounds the reactor-to-worker handoff queue.
	WorkQueueSize int `mapstructure:"work_queue_size" json:"work_queue_size" yaml:"work_queue_size" toml:"work_queue_size" validate:"min=1"`

	// TimeSlot is the alarm period; inactive connections are evicted
	// after three time slots with no traffic.
	TimeSlot libdur.Duration `mapstructure:"time_slot" json:"time_slot" yaml:"time_slot" toml:"time_slot"`

	// MaxFD bounds the number of simultaneously registered connections.
	MaxFD int `mapstructure:"max_fd" json:"max_fd" yaml:"max_fd" toml:"max_fd" validate:"min=1"`

	// Log configures the injected logger shared by every subsystem.
	Log logcfg.Options `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

// DefaultTimeSlot matches spec's TIMESLOT default of 5 seconds; idle
// eviction fires after three of these with no activity.
const DefaultTimeSlot = libdur.Duration(5_000_000_000)

// Default returns a Config with every field the positional CLI form
// doesn't set filled to its documented default.
func Default() Config {
	return Config{
		EdgeTriggered: false,
		Workers:       8,
		WorkQueueSize: 10000,
		TimeSlot:      DefaultTimeSlot,
		MaxFD:         65535,
	}
}

// Validate checks every struct tag constraint and reports each failing
// field individually.
func (c Config) Validate() liberr.Error {
	out := ErrorConfigValidate.Error(nil)

	if err := libval.New().Struct(c); err != nil {
		if _, ok := err.(*libval.InvalidValidationError); ok {
			return ErrorConfigValidate.Error(err)
		}

		for _, e := range err.(libval.ValidationErrors) {
			//nolint goerr113
			out.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.Namespace(), e.ActualTag()))
		}
	}

	if !out.HasParent() {
		return nil
	}

	return out
}

// EvictAfter is the idle duration after which a connection with no
// traffic is closed by the timer: three time slots.
func (c Config) EvictAfter() libdur.Duration {
	return libdur.Duration(3 * c.TimeSlot.Time())
}
