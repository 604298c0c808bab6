//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of apify-haystack.
//
// apify-haystack is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// apify-haystack is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with apify-haystack. If not, see https://www.gnu.org/licenses/.

package apifyhaystack

import (
	"fmt"
	"time"
)

// Package apifyhaystack error taxonomy.
//
// ConfigError covers construction misuse and is raised before any remote
// call. RunError covers runs the platform itself reports as failed.
// RunTimeoutError covers the local wait bound elapsing while the run is
// still in progress. Errors raised by mapping functions or by the client's
// transport pass through unwrapped; nothing is retried here.

// ConfigError reports invalid loader or client configuration.
type ConfigError struct {
	Op  string // operation being configured (e.g., "loader", "client")
	Msg string // what is wrong
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s config: %s", e.Op, e.Msg)
}

// RunError reports a run that reached a terminal status other than SUCCEEDED.
// The platform's own failure reason is carried in Msg.
type RunError struct {
	RunID  string
	Status RunStatus
	Msg    string
}

func (e *RunError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("run %s finished as %s: %s", e.RunID, e.Status, e.Msg)
	}
	return fmt.Sprintf("run %s finished as %s", e.RunID, e.Status)
}

// RunTimeoutError reports that the wait for a run exceeded the configured
// bound. The remote run is left running; no cancellation is issued, so the
// caller may re-check it later under the same run ID.
type RunTimeoutError struct {
	RunID   string
	Timeout time.Duration
	Status  RunStatus // last status observed before giving up
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run %s still %s after %s", e.RunID, e.Status, e.Timeout)
}
