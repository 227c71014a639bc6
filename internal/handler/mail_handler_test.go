package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/dispatch"
	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type fakeDispatchService struct {
	dispatchFn     func(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error)
	sendAsClientFn func(ctx context.Context, identity, recipient, subject, htmlBody string) (*domain.SendResult, error)
	sendBulkFn     func(ctx context.Context, requests []domain.SendRequest, delay time.Duration) []dispatch.BulkItemOutcome
	statsFn        func(ctx context.Context) (*domain.DispatchStats, error)
}

func (f *fakeDispatchService) Dispatch(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	if f.dispatchFn != nil {
		return f.dispatchFn(ctx, req)
	}
	return &domain.SendResult{Transport: domain.TransportAccount}, nil
}

func (f *fakeDispatchService) SendAsClient(ctx context.Context, identity, recipient, subject, htmlBody string) (*domain.SendResult, error) {
	if f.sendAsClientFn != nil {
		return f.sendAsClientFn(ctx, identity, recipient, subject, htmlBody)
	}
	return &domain.SendResult{Transport: domain.TransportAccount}, nil
}

func (f *fakeDispatchService) SendBulk(ctx context.Context, requests []domain.SendRequest, delay time.Duration) []dispatch.BulkItemOutcome {
	if f.sendBulkFn != nil {
		return f.sendBulkFn(ctx, requests, delay)
	}
	return nil
}

func (f *fakeDispatchService) Stats(ctx context.Context) (*domain.DispatchStats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx)
	}
	return &domain.DispatchStats{}, nil
}

func newTestApp(t *testing.T, service DispatchService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	if err := RegisterMailRoutes(app, service); err != nil {
		t.Fatalf("RegisterMailRoutes() error = %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp, payload
}

func TestDispatchEndpointSuccess(t *testing.T) {
	t.Parallel()

	service := &fakeDispatchService{
		dispatchFn: func(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
			if req.To[0] != "lead@customer.test" {
				t.Fatalf("to = %v", req.To)
			}
			return &domain.SendResult{
				ProviderMessageID: "msg-1",
				Transport:         domain.TransportAccount,
				Account:           "a@agency.test",
				RemainingQuota:    4,
			}, nil
		},
	}
	app := newTestApp(t, service)

	resp, body := doJSON(t, app, http.MethodPost, "/v1/dispatch",
		`{"to":["lead@customer.test"],"subject":"Hi","html":"<p>Hi</p>"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var result sendResultResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Transport != "ACCOUNT" || result.Account != "a@agency.test" {
		t.Fatalf("result = %+v", result)
	}
	if result.RemainingQuota != float64(4) {
		t.Fatalf("remainingQuota = %v, want 4", result.RemainingQuota)
	}
}

func TestDispatchEndpointValidationError(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeDispatchService{})

	resp, _ := doJSON(t, app, http.MethodPost, "/v1/dispatch", `{"subject":"no recipients"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDispatchEndpointCapacityExhausted(t *testing.T) {
	t.Parallel()

	service := &fakeDispatchService{
		dispatchFn: func(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
			return nil, domain.ErrAllCapacityExhausted
		},
	}
	app := newTestApp(t, service)

	resp, _ := doJSON(t, app, http.MethodPost, "/v1/dispatch",
		`{"to":["lead@customer.test"],"subject":"Hi","html":"<p>Hi</p>"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
}

func TestBulkEndpointReportsPartialSuccess(t *testing.T) {
	t.Parallel()

	service := &fakeDispatchService{
		sendBulkFn: func(ctx context.Context, requests []domain.SendRequest, delay time.Duration) []dispatch.BulkItemOutcome {
			if delay != -1 {
				t.Fatalf("delay = %s, want -1 for default", delay)
			}
			return []dispatch.BulkItemOutcome{
				{Index: 0, Result: &domain.SendResult{Transport: domain.TransportAccount}},
				{Index: 1, Err: domain.ErrAllCapacityExhausted},
			}
		},
	}
	app := newTestApp(t, service)

	resp, body := doJSON(t, app, http.MethodPost, "/v1/dispatch/bulk",
		`{"messages":[
			{"to":["a@customer.test"],"subject":"Hi","html":"<p>Hi</p>"},
			{"to":["b@customer.test"],"subject":"Hi","html":"<p>Hi</p>"}
		]}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for partial success: %s", resp.StatusCode, body)
	}

	var parsed bulkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(parsed.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(parsed.Outcomes))
	}
	if !parsed.Outcomes[0].Success || parsed.Outcomes[1].Success {
		t.Fatalf("outcomes = %+v", parsed.Outcomes)
	}
	if parsed.Outcomes[1].Error == "" {
		t.Fatal("failed outcome must carry an error message")
	}
}

func TestBulkEndpointRequiresMessages(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeDispatchService{})

	resp, _ := doJSON(t, app, http.MethodPost, "/v1/dispatch/bulk", `{"messages":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBulkEndpointCustomDelay(t *testing.T) {
	t.Parallel()

	var observed time.Duration
	service := &fakeDispatchService{
		sendBulkFn: func(ctx context.Context, requests []domain.SendRequest, delay time.Duration) []dispatch.BulkItemOutcome {
			observed = delay
			return nil
		},
	}
	app := newTestApp(t, service)

	resp, _ := doJSON(t, app, http.MethodPost, "/v1/dispatch/bulk",
		`{"messages":[{"to":["a@customer.test"],"subject":"Hi","html":"<p>Hi</p>"}],"delayMs":0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if observed != 0 {
		t.Fatalf("delay = %s, want explicit 0", observed)
	}
}

func TestSendAsClientEndpoint(t *testing.T) {
	t.Parallel()

	service := &fakeDispatchService{
		sendAsClientFn: func(ctx context.Context, identity, recipient, subject, htmlBody string) (*domain.SendResult, error) {
			if identity != "ceo@client.test" || recipient != "lead@customer.test" {
				t.Fatalf("identity = %s, recipient = %s", identity, recipient)
			}
			return &domain.SendResult{Transport: domain.TransportAccount, Account: "a@agency.test"}, nil
		},
	}
	app := newTestApp(t, service)

	resp, _ := doJSON(t, app, http.MethodPost, "/v1/dispatch/as-client",
		`{"identity":"ceo@client.test","to":"lead@customer.test","subject":"Intro","html":"<p>Hi</p>"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatsEndpointRendersUnlimitedCapacity(t *testing.T) {
	t.Parallel()

	service := &fakeDispatchService{
		statsFn: func(ctx context.Context) (*domain.DispatchStats, error) {
			return &domain.DispatchStats{
				Accounts: []domain.AccountUsage{
					{
						Address:    "a@agency.test",
						Class:      domain.ClassHighVolume,
						DailyQuota: 2000,
						SentToday:  12,
						Remaining:  1988,
					},
				},
				RelayAvailable: true,
				TotalSentToday: 12,
				TotalCapacity:  domain.UnlimitedQuota,
			}, nil
		},
	}
	app := newTestApp(t, service)

	resp, body := doJSON(t, app, http.MethodGet, "/v1/stats", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var parsed statsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if parsed.TotalCapacity != "unlimited" {
		t.Fatalf("totalCapacity = %v, want \"unlimited\"", parsed.TotalCapacity)
	}
	if len(parsed.PerAccount) != 1 || parsed.PerAccount[0].Remaining != 1988 {
		t.Fatalf("perAccount = %+v", parsed.PerAccount)
	}
	if !parsed.RelayAvailable {
		t.Fatal("relayAvailable should be true")
	}
}
