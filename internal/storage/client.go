package storage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
)

// apiKeyHeader carries the API key on every request when configured.
const apiKeyHeader = "X-API-Key"

// Device is the master data record the storage service holds for a
// device.
type Device struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Location string            `json:"location,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Client is a read-only client for the external device storage service.
//
// The storage service owns relational device data; this client only
// fetches master data to enrich events. Callers must treat failures as
// degradation, not errors: a device exists even when its master data is
// momentarily unreachable.
type Client struct {
	http    *resty.Client
	enabled bool
	logger  *logging.Logger
}

// NewClient creates a storage service client from configuration.
//
// Authentication: when an API key is configured it is sent on every
// request and basic auth credentials are ignored; basic auth applies
// only when no API key is set.
func NewClient(cfg config.StorageConfig, logger *logging.Logger) *Client {
	c := &Client{
		enabled: cfg.Enabled,
		logger:  logger.With("component", "storage"),
	}
	if !cfg.Enabled {
		return c
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.GetTimeout()).
		SetHeader("Accept", "application/json")

	switch {
	case cfg.Auth.APIKey != "":
		http.SetHeader(apiKeyHeader, cfg.Auth.APIKey)
	case cfg.Auth.Username != "":
		http.SetBasicAuth(cfg.Auth.Username, cfg.Auth.Password)
	}

	c.http = http
	return c
}

// Enabled reports whether the client is configured to make requests.
func (c *Client) Enabled() bool {
	return c.enabled
}

// GetDevice fetches master data for a device.
//
// Returns:
//   - Device: the device record
//   - error: ErrDisabled when the client is not configured, ErrNotFound
//     for unknown devices, ErrUnavailable for transport failures and
//     unexpected responses
func (c *Client) GetDevice(ctx context.Context, deviceID string) (Device, error) {
	if !c.enabled {
		return Device{}, ErrDisabled
	}

	var device Device
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&device).
		SetPathParam("deviceID", deviceID).
		Get("/api/v1/devices/{deviceID}")
	if err != nil {
		return Device{}, fmt.Errorf("%w: get device %s: %v", ErrUnavailable, deviceID, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return device, nil
	case http.StatusNotFound:
		return Device{}, fmt.Errorf("%w: %s", ErrNotFound, deviceID)
	default:
		return Device{}, fmt.Errorf("%w: get device %s: status %d", ErrUnavailable, deviceID, resp.StatusCode())
	}
}

// HealthCheck verifies the storage service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/v1/health")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode())
	}

	return nil
}
