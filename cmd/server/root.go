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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	libcfg "github.com/sabouaram/reactorhttp/config"
	libdur "github.com/sabouaram/reactorhttp/duration"
	libengine "github.com/sabouaram/reactorhttp/engine"
	libreactor "github.com/sabouaram/reactorhttp/reactor"
	libver "github.com/sabouaram/reactorhttp/version"
)

var (
	flagConfig          string
	flagBind            string
	flagDocRoot         string
	flagWorkers         int
	flagQueueSize       int
	flagTimeSlot        time.Duration
	flagMaxFD           int
	flagEdgeTriggered   bool
	flagTimerKind       string
	flagShutdownTimeout time.Duration
	flagPrintVersion    bool
)

var buildRelease = "dev"
var buildHash = "none"
var buildDate = ""

var appVersion = libver.NewVersion(
	libver.LicenseMIT,
	"reactorhttp",
	"single-threaded epoll HTTP/1.1 static file server",
	buildDate,
	buildHash,
	buildRelease,
	"",
	"",
)

var rootCmd = &cobra.Command{
	Use:           "reactorhttp [port] [edge_triggered] [doc_root]",
	Short:         "epoll-backed static HTTP server",
	Long:          appVersion.GetDescription(),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServer,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagConfig, "config", "", "path to a config file (json/yaml/toml), loaded by viper")
	flags.StringVar(&flagBind, "bind", "", "listen address, e.g. 0.0.0.0:8080")
	flags.StringVar(&flagDocRoot, "doc-root", "", "filesystem root served for GET requests")
	flags.IntVar(&flagWorkers, "workers", 0, "fixed worker pool size")
	flags.IntVar(&flagQueueSize, "queue-size", 0, "bound on the reactor-to-worker handoff queue")
	flags.DurationVar(&flagTimeSlot, "time-slot", 0, "alarm period; idle connections evict after three of these")
	flags.IntVar(&flagMaxFD, "max-fd", 0, "maximum simultaneously registered connections")
	flags.BoolVar(&flagEdgeTriggered, "edge-triggered", false, "use edge-triggered client socket readiness")
	flags.StringVar(&flagTimerKind, "timer", "list", "eviction timer structure: list or heap")
	flags.DurationVar(&flagShutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for draining connections on shutdown")
	flags.BoolVar(&flagPrintVersion, "version", false, "print version information and exit")

	_ = viper.BindPFlag("bind", flags.Lookup("bind"))
	_ = viper.BindPFlag("doc_root", flags.Lookup("doc-root"))
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("work_queue_size", flags.Lookup("queue-size"))
	_ = viper.BindPFlag("max_fd", flags.Lookup("max-fd"))
	_ = viper.BindPFlag("edge_triggered", flags.Lookup("edge-triggered"))
}

func runServer(cmd *cobra.Command, args []string) error {
	if flagPrintVersion {
		fmt.Fprint(os.Stdout, appVersion.GetInfo())
		return nil
	}

	cfg, timerKind, err := resolveConfig(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := libengine.New(ctx, cfg, timerKind)
	if err != nil {
		return err
	}

	return srv.Run(ctx, flagShutdownTimeout)
}

// defaultPositionalDocRoot is served when the legacy two-argument form
// ("server <port> <edge_triggered>") is used: the original program
// hardcoded its resources directory at compile time instead of taking
// it as an argument, so the closest equivalent here is the process's
// own working directory.
const defaultPositionalDocRoot = "."

// resolveConfig builds a Config either from the legacy positional form
// (the original two-argument "<port> <edge_triggered>" form, or three
// arguments when a doc root is also given) or from defaults layered
// with a viper-loaded config file and any flags the caller set
// explicitly.
func resolveConfig(args []string) (libcfg.Config, libreactor.TimerKind, error) {
	timerKind := parseTimerKind(flagTimerKind)

	if len(args) == 2 || len(args) == 3 {
		docRoot := defaultPositionalDocRoot
		if len(args) == 3 {
			docRoot = args[2]
		}
		cfg, err := libcfg.FromPositional(args[0], args[1], docRoot)
		return cfg, timerKind, err
	}

	cfg := libcfg.Default()

	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
		if err := viper.ReadInConfig(); err != nil {
			return libcfg.Config{}, timerKind, err
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			return libcfg.Config{}, timerKind, err
		}
	}

	if flagBind != "" {
		cfg.Bind = flagBind
	}
	if flagDocRoot != "" {
		cfg.DocRoot = flagDocRoot
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagQueueSize > 0 {
		cfg.WorkQueueSize = flagQueueSize
	}
	if flagTimeSlot > 0 {
		cfg.TimeSlot = libdur.Duration(flagTimeSlot)
	}
	if flagMaxFD > 0 {
		cfg.MaxFD = flagMaxFD
	}
	if cmdFlagChanged("edge-triggered") {
		cfg.EdgeTriggered = flagEdgeTriggered
	}

	return cfg, timerKind, nil
}

func cmdFlagChanged(name string) bool {
	f := rootCmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func parseTimerKind(s string) libreactor.TimerKind {
	if s == "heap" {
		return libreactor.TimerHeap
	}
	return libreactor.TimerList
}
