/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	healthcheckTimeout = 15 * time.Second
	healthyStatus      = "healthy"
)

// WakeUpReport describes how a sleeping deployment came up.
type WakeUpReport struct {
	RootStatus   int
	RootDuration time.Duration
	Attempts     int
	Health       *Health
	User         *AccountUser
}

// Health fetches the healthcheck once.
func (c *APIClient) Health(ctx context.Context) (*Health, *Response, error) {
	resp, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    c.endpoints.HealthCheck(),
		Auth:    AuthAPIKey,
		Timeout: healthcheckTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp, nil
	}

	var health Health
	if err := resp.Decode(&health); err != nil {
		return nil, resp, err
	}

	return &health, resp, nil
}

// WakeUp hits the root URL with the long wake-up timeout, polls the
// healthcheck until it reports healthy and finally proves that the admin
// credentials work.
func (c *APIClient) WakeUp(ctx context.Context) (*WakeUpReport, error) {
	report := &WakeUpReport{}

	c.log.Step("waking up backend service", "url", c.config.BaseURL)

	resp, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    c.endpoints.Root(),
		Root:    true,
		Auth:    AuthAPIKey,
		Timeout: c.config.WakeUpTimeout,
	})
	if err != nil {
		return report, fmt.Errorf("waking up backend: %w", err)
	}

	report.RootStatus = resp.StatusCode
	report.RootDuration = resp.Duration

	if resp.StatusCode == http.StatusOK {
		c.log.Success("backend service is awake and responding")
	} else {
		c.log.Info("backend service responded, warming up", "status", resp.StatusCode)
	}

	backoff := wait.Backoff{
		Duration: c.pollInterval,
		Factor:   1.5,
		Steps:    c.config.Retries + 1,
	}

	err = wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		report.Attempts++

		health, resp, err := c.Health(ctx)
		if err != nil {
			c.log.Warning("healthcheck failed", "attempt", report.Attempts, "error", err)
			return false, nil
		}

		if health == nil || health.Status != healthyStatus {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			c.log.Warning("healthcheck not healthy yet", "attempt", report.Attempts, "status", status)

			return false, nil
		}

		report.Health = health

		return true, nil
	})
	if err != nil {
		if wait.Interrupted(err) {
			return report, fmt.Errorf("backend not healthy after %d attempts: %w", report.Attempts, err)
		}

		return report, err
	}

	c.log.Success("healthcheck passed, backend fully operational", "database", report.Health.DatabaseConnection)

	if _, err := c.session.Authenticate(ctx); err != nil {
		return report, err
	}

	report.User = c.session.User()

	c.log.Success("authentication verified, backend ready for testing")

	return report, nil
}
