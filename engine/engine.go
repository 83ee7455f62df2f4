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

// Package engine wires configuration, logger, and reactor together into
// the one object cmd/server drives: Server.Run blocks until the context
// is canceled or a fatal setup error occurs, then drains in-flight
// connections before returning.
package engine

import (
	"context"
	"time"

	libcfg "github.com/sabouaram/reactorhttp/config"
	libfd "github.com/sabouaram/reactorhttp/ioutils/fileDescriptor"
	liblog "github.com/sabouaram/reactorhttp/logger"
	libreactor "github.com/sabouaram/reactorhttp/reactor"
)

// Server owns one reactor instance bound to one validated configuration.
type Server struct {
	cfg  libcfg.Config
	re   *libreactor.Reactor
	logf liblog.FuncLog
}

// New validates cfg, builds the configured logger, and constructs (but
// does not start) the reactor backing it.
func New(ctx context.Context, cfg libcfg.Config, timer libreactor.TimerKind) (*Server, error) {
	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	log, err := liblog.NewFrom(ctx, &cfg.Log)
	if err != nil {
		return nil, err
	}
	logf := func() liblog.Logger { return log }

	// every accepted connection and every file served holds an fd open;
	// raise the process soft limit to cover MaxFD sockets plus headroom
	// for the listening socket, the self-pipe, and served files.
	if _, _, fdErr := libfd.SystemFileDescriptor(cfg.MaxFD + 64); fdErr != nil {
		log.Warning("unable to raise open file descriptor limit", fdErr)
	}

	return &Server{
		cfg:  cfg,
		re:   libreactor.NewWithTimer(cfg, logf, timer),
		logf: logf,
	}, nil
}

// Run starts the reactor and blocks until ctx is canceled, then runs a
// graceful stop bounded by shutdownTimeout. If the reactor fails before
// it starts listening, Run returns that failure instead.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := s.re.Start(ctx); err != nil {
		return err
	}

	for !s.re.IsListening() {
		if !s.re.IsRunning() {
			return s.re.ErrorsLast()
		}
		time.Sleep(10 * time.Millisecond)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.re.Stop(stopCtx) }()

	select {
	case err := <-done:
		return err
	case <-stopCtx.Done():
		return stopCtx.Err()
	}
}

// Addr returns the reactor's bound listen address, valid once IsListening
// reports true.
func (s *Server) Addr() string {
	return s.re.Addr()
}

// IsListening reports whether the reactor has finished its bind/epoll
// setup and is actively serving.
func (s *Server) IsListening() bool {
	return s.re.IsListening()
}

// ActiveConnections reports the reactor's current live connection count.
func (s *Server) ActiveConnections() int {
	return s.re.ActiveUsers()
}
