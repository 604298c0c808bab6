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

import "time"

// RunLocator identifies and parameterizes the remote job to start.
// Exactly one of ActorID and TaskID is set.
type RunLocator struct {
	ActorID      string // ID or name of an Actor, e.g. "apify/website-content-crawler"
	TaskID       string // ID or name of a saved Actor task
	Build        string // Actor build tag or number; empty means the default build
	MemoryMBytes int    // memory limit for the run; zero means the platform default
}

// RunStatus is the status of an Actor run as reported by the platform.
type RunStatus string

const (
	RunStatusReady     RunStatus = "READY"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusTimingOut RunStatus = "TIMING-OUT"
	RunStatusTimedOut  RunStatus = "TIMED-OUT"
	RunStatusAborting  RunStatus = "ABORTING"
	RunStatusAborted   RunStatus = "ABORTED"
)

// Terminal reports whether the run has finished, successfully or not.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusTimedOut, RunStatusAborted:
		return true
	}
	return false
}

// RunInfo holds the metadata of one Actor run.
type RunInfo struct {
	ID            string    // run ID assigned by the platform
	Status        RunStatus // last observed status
	StatusMessage string    // platform's own failure reason, if any
	DatasetID     string    // default dataset produced by the run
	StartedAt     time.Time
	FinishedAt    time.Time
}
