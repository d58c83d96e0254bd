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

package main

import "github.com/BurntSushi/toml"

// config is the configuration for the demo binary. Each demo receives it
// through the subcommands args slot.
type config struct {
	// LogLevel is a logrus level name ("warning", "debug", ...).
	LogLevel string `toml:"log_level"`
	// DeadlockDetection enables the acquisition-time safety check in demos
	// that take locks (the deadlock demo forces it on regardless).
	DeadlockDetection bool `toml:"deadlock_detection"`
	// DefaultPriority is the stride priority tasks start with, >= 2.
	DefaultPriority int64 `toml:"default_priority"`
}

// loadConfig loads the demo config from path, or returns defaults when path
// is empty.
func loadConfig(path string) (*config, error) {
	c := config{
		LogLevel:          "warning",
		DeadlockDetection: true,
		DefaultPriority:   16,
	}
	if path == "" {
		return &c, nil
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return &c, err
	}
	return &c, nil
}
