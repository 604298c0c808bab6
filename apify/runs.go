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

package apify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	haystack "github.com/apify/apify-haystack"
)

// runEnvelope is the API's response wrapper for run resources.
type runEnvelope struct {
	Data runData `json:"data"`
}

type runData struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	StatusMessage    string     `json:"statusMessage"`
	DefaultDatasetID string     `json:"defaultDatasetId"`
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt"`
}

func (d runData) info() *haystack.RunInfo {
	info := &haystack.RunInfo{
		ID:            d.ID,
		Status:        haystack.RunStatus(d.Status),
		StatusMessage: d.StatusMessage,
		DatasetID:     d.DefaultDatasetID,
		StartedAt:     d.StartedAt,
	}
	if d.FinishedAt != nil {
		info.FinishedAt = *d.FinishedAt
	}
	return info
}

// resourceID converts Actor and task names of the form "user/name" into the
// "user~name" form the API expects in paths.
func resourceID(id string) string {
	return url.PathEscape(strings.ReplaceAll(id, "/", "~"))
}

// StartRun starts an Actor or task run and returns its run ID.
// It does not wait for the run to finish.
func (c *Client) StartRun(ctx context.Context, locator haystack.RunLocator, input haystack.Record) (string, error) {
	var path string
	switch {
	case locator.ActorID != "":
		path = fmt.Sprintf("%s/acts/%s/runs", c.opts.BaseURL, resourceID(locator.ActorID))
	case locator.TaskID != "":
		path = fmt.Sprintf("%s/actor-tasks/%s/runs", c.opts.BaseURL, resourceID(locator.TaskID))
	default:
		return "", &haystack.ConfigError{Op: "client", Msg: "run locator has neither an actor ID nor a task ID"}
	}

	query := url.Values{}
	if locator.Build != "" {
		query.Set("build", locator.Build)
	}
	if locator.MemoryMBytes > 0 {
		query.Set("memory", strconv.Itoa(locator.MemoryMBytes))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	if input == nil {
		input = haystack.Record{}
	}

	var envelope runEnvelope
	if err := c.doJSON(ctx, "start_run", http.MethodPost, path, input, &envelope); err != nil {
		return "", err
	}
	if envelope.Data.ID == "" {
		return "", &APIError{Op: "start_run", URL: path, Err: fmt.Errorf("response carries no run ID")}
	}
	return envelope.Data.ID, nil
}

// WaitForRun blocks until the run reaches a terminal status or the timeout
// elapses, and returns the last observed run info either way. The polling
// cadence is delegated to the platform's waitForFinish parameter; this
// method never issues a cancellation, so a run that outlives the timeout
// keeps going remotely.
func (c *Client) WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*haystack.RunInfo, error) {
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		wait := remaining
		if wait > maxWaitForFinish {
			wait = maxWaitForFinish
		}
		if wait < 0 {
			wait = 0
		}

		path := fmt.Sprintf("%s/actor-runs/%s?waitForFinish=%d",
			c.opts.BaseURL, url.PathEscape(runID), int(wait.Seconds()))

		var envelope runEnvelope
		if err := c.doJSON(ctx, "wait_run", http.MethodGet, path, nil, &envelope); err != nil {
			return nil, err
		}

		info := envelope.Data.info()
		// Sub-second remainders would degrade into a busy loop of
		// waitForFinish=0 calls; give up on them as well.
		if info.Status.Terminal() || time.Until(deadline) < time.Second {
			return info, nil
		}

		// The platform normally holds the request open for the whole
		// waitForFinish period. If it answered early, pause before the
		// next poll instead of spinning.
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, &APIError{Op: "wait_run", URL: path, Err: ctx.Err()}
		}
	}
}

// RunDatasetID resolves the default dataset produced by a run.
func (c *Client) RunDatasetID(ctx context.Context, runID string) (string, error) {
	path := fmt.Sprintf("%s/actor-runs/%s", c.opts.BaseURL, url.PathEscape(runID))

	var envelope runEnvelope
	if err := c.doJSON(ctx, "run_dataset", http.MethodGet, path, nil, &envelope); err != nil {
		return "", err
	}
	if envelope.Data.DefaultDatasetID == "" {
		return "", &APIError{Op: "run_dataset", URL: path, Err: fmt.Errorf("run %s has no default dataset", runID)}
	}
	return envelope.Data.DefaultDatasetID, nil
}
