// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command vecapicaps prints which vector shapes each target can expand, and
// optionally compiles a few demo methods to show what the pipeline does with
// them.
//
// Usage:
//
//	vecapicaps                              # host capabilities
//	vecapicaps -targets avx2,avx512,neon    # compare targets
//	vecapicaps -targets all -demo -v        # also compile the demos, with logging
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/compile"
	"github.com/ajroetker/vecapi/vlog"
)

var (
	targets  = flag.String("targets", "host", "Comma-separated targets ("+strings.Join(arch.Names(), ",")+") or 'all'")
	maxLanes = flag.Int("max_lanes", 64, "Largest lane count to ask the targets about")
	demo     = flag.Bool("demo", false, "Compile the demo methods for every target")
	parallel = flag.Int("parallel", 0, "Methods compiled at once (default: GOMAXPROCS)")
	verbose  = flag.Bool("v", false, "Log pipeline decisions to stderr")
)

func main() {
	flag.Parse()

	oracles, err := parseTargets(*targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := vlog.L()
	if *verbose {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer func() { _ = logger.Sync() }()

	for _, o := range oracles {
		printCapabilities(os.Stdout, o, *maxLanes)
		fmt.Println()
	}
	if !*demo {
		return
	}

	failed := false
	for _, o := range oracles {
		results, err := compile.Batch(context.Background(), o, demoMethods(),
			compile.WithLogger(logger), compile.WithParallelism(*parallel))
		for _, res := range results {
			fmt.Println(res)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// parseTargets turns the -targets flag into oracles, without duplicates.
func parseTargets(list string) ([]arch.Oracle, error) {
	names := lo.Uniq(lo.Compact(lo.Map(strings.Split(list, ","), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})))
	if lo.Contains(names, "all") {
		names = lo.Without(arch.Names(), "host")
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no targets specified")
	}
	oracles := make([]arch.Oracle, 0, len(names))
	for _, name := range names {
		o, err := arch.Lookup(name)
		if err != nil {
			return nil, err
		}
		oracles = append(oracles, o)
	}
	return oracles, nil
}
