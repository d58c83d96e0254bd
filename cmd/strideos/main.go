// Copyright 2026 The StrideOS Authors
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

// Binary strideos runs scheduling and synchronization demos against the
// StrideOS kernel core.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var configPath = flag.String("config", "", "path to a TOML config file; flags still apply on top")

func main() {
	// Help and flags take the first IDs; demos follow.
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(Fairness), "demos")
	subcommands.Register(new(Philosophers), "demos")
	subcommands.Register(new(Deadlock), "demos")

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	conf, err := loadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("loading config %q: %v", *configPath, err)
	}
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		logrus.Fatalf("bad log_level %q: %v", conf.LogLevel, err)
	}
	logrus.SetLevel(level)

	os.Exit(int(subcommands.Execute(context.Background(), conf)))
}
