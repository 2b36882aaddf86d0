package schedule

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// RemoteConfig points at the cloud autoclocker service: an API-gateway
// endpoint that fires the clock-out server-side. DataKey is the wrapped data
// key for the user's vaulted password; this client treats it as opaque.
type RemoteConfig struct {
	Host      string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	DataKey   string
}

// RemoteScheduler schedules a clock-out through the cloud service, signing
// requests with SigV4 for the execute-api gateway.
type RemoteScheduler struct {
	cfg        RemoteConfig
	httpClient *http.Client
	signer     *v4.Signer
	logger     *slog.Logger
}

func NewRemoteScheduler(cfg RemoteConfig, logger *slog.Logger) *RemoteScheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RemoteScheduler{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		signer:     v4.NewSigner(),
		logger:     logger,
	}
}

type scheduleRequest struct {
	UserID       string  `json:"UserId"`
	Key          string  `json:"Key"`
	ScheduleTime float64 `json:"ScheduleTime"` // whole minutes until clock-out
}

type scheduleResponse struct {
	ScheduleTime string `json:"ScheduleTime"`
}

// The service reports the scheduled instant without an offset; it is UTC.
const remoteTimeLayout = "2006-01-02T15:04:05"

func (s *RemoteScheduler) ScheduleAt(ctx context.Context, identity string, delay time.Duration) (time.Time, error) {
	body, err := json.Marshal(scheduleRequest{
		UserID:       identity,
		Key:          s.cfg.DataKey,
		ScheduleTime: math.Floor(delay.Minutes()),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("marshaling schedule request: %w", err)
	}

	url := "https://" + s.cfg.Host + s.cfg.Endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return time.Time{}, fmt.Errorf("creating schedule request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	creds := aws.Credentials{AccessKeyID: s.cfg.AccessKey, SecretAccessKey: s.cfg.SecretKey}
	sum := sha256.Sum256(body)
	if err := s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]),
		"execute-api", s.cfg.Region, time.Now()); err != nil {
		return time.Time{}, fmt.Errorf("signing schedule request: %w", err)
	}

	s.logger.Debug("remote schedule request", "host", s.cfg.Host, "minutes", math.Floor(delay.Minutes()))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("calling scheduler service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading scheduler response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("scheduler service returned status %d: %s",
			resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var parsed scheduleResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return time.Time{}, fmt.Errorf("parsing scheduler response: %w", err)
	}
	scheduled, err := time.ParseInLocation(remoteTimeLayout, parsed.ScheduleTime, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing scheduled time %q: %w", parsed.ScheduleTime, err)
	}
	return scheduled, nil
}
