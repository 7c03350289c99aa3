// AngelaMos | 2026
// service_test.go

package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/payment"
	"github.com/ltl-studio/backend/internal/user"
)

type memoryRepository struct {
	mu       sync.Mutex
	bookings map[string]Booking
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{bookings: make(map[string]Booking)}
}

func (m *memoryRepository) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("get booking: %w", core.ErrNotFound)
	}
	return &b, nil
}

func (m *memoryRepository) UpdateStatus(_ context.Context, id string, status Status) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("update booking status: %w", core.ErrNotFound)
	}
	b.Status = status
	m.bookings[id] = b
	return &b, nil
}

func (m *memoryRepository) List(_ context.Context) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memoryRepository) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings), nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]string
	err      error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]string)}
}

func (f *fakeAccounts) ProvisionWithTemporaryPassword(
	_ context.Context,
	_, email string,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	if _, ok := f.accounts[email]; ok {
		return "", fmt.Errorf("create user: %w", user.ErrEmailExists)
	}

	pw, err := core.GenerateTemporaryPassword()
	if err != nil {
		return "", err
	}
	f.accounts[email] = pw
	return pw, nil
}

type fakeGateway struct {
	intents map[string]*payment.Intent
	err     error
	created []int64
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string) (*payment.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, amount)
	return &payment.Intent{
		ID:           "pi_new",
		ClientSecret: "pi_new_secret",
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	intent, ok := g.intents[id]
	if !ok {
		return nil, &payment.Error{Message: "No such payment_intent", Err: errors.New("404")}
	}
	return intent, nil
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	svc      *Service
	repo     *memoryRepository
	accounts *fakeAccounts
	gateway  *fakeGateway
}

func newFixture(t *testing.T, verify bool) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newMemoryRepository(),
		accounts: newFakeAccounts(),
		gateway:  &fakeGateway{intents: map[string]*payment.Intent{}},
	}
	f.svc = NewService(
		f.repo,
		f.accounts,
		f.gateway,
		config.PaymentConfig{Amount: 7500, Currency: "usd"},
		config.BookingConfig{VerifyPayment: verify},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	c := &clock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	f.svc.now = c.now
	return f
}

func validRequest(email string) CreateBookingRequest {
	return CreateBookingRequest{
		ClientName:    "Bea",
		ClientEmail:   email,
		ServiceType:   "music-production",
		SessionFormat: "online",
		PreferredDate: "2026-05-01",
	}
}

func TestCreateBookingProvisionsAccount(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.svc.Create(context.Background(), validRequest("b@x.com"))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Booking.Status)
	assert.Equal(t, Price, result.Booking.Price)
	assert.NotEmpty(t, result.TempPassword)
	assert.Regexp(t, `^temp[0-9a-z]{9}$`, result.TempPassword)
	assert.Equal(t, result.TempPassword, f.accounts.accounts["b@x.com"])
}

func TestCreateBookingSameEmailTwice(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validRequest("twice@x.com"))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, validRequest("Twice@X.com"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Booking.ID, second.Booking.ID)
	assert.NotEmpty(t, first.TempPassword)
	assert.Empty(t, second.TempPassword)
	assert.Len(t, f.accounts.accounts, 1)

	count, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreateBookingSurvivesProvisioningFailure(t *testing.T) {
	f := newFixture(t, false)
	f.accounts.err = errors.New("database unavailable")

	result, err := f.svc.Create(context.Background(), validRequest("down@x.com"))
	require.NoError(t, err)
	assert.Empty(t, result.TempPassword)

	_, err = f.repo.GetByID(context.Background(), result.Booking.ID)
	assert.NoError(t, err)
}

func TestCreateBookingVerifiesPaymentWhenEnabled(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.gateway.intents["pi_ok"] = &payment.Intent{ID: "pi_ok", Status: payment.StatusSucceeded}
	f.gateway.intents["pi_pending"] = &payment.Intent{ID: "pi_pending", Status: "requires_payment_method"}

	req := validRequest("pay@x.com")
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	req.PaymentIntentID = "pi_pending"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	req.PaymentIntentID = "pi_missing"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, core.ErrUpstream)

	req.PaymentIntentID = "pi_ok"
	result, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "pi_ok", result.Booking.PaymentIntentID)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	result, err := f.svc.Create(ctx, validRequest("s@x.com"))
	require.NoError(t, err)

	updated, err := f.svc.SetStatus(ctx, result.Booking.ID, "canceled")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, updated.Status)

	back, err := f.svc.SetStatus(ctx, result.Booking.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, back.Status)

	_, err = f.svc.SetStatus(ctx, result.Booking.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.SetStatus(ctx, "00000000-0000-0000-0000-000000000000", "confirmed")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for _, email := range []string{"1@x.com", "2@x.com", "3@x.com"} {
		_, err := f.svc.Create(ctx, validRequest(email))
		require.NoError(t, err)
	}

	bookings, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, "3@x.com", bookings[0].ClientEmail)
	assert.Equal(t, "1@x.com", bookings[2].ClientEmail)
}

func TestCreatePaymentIntentUsesConfiguredAmount(t *testing.T) {
	f := newFixture(t, false)

	intent, err := f.svc.CreatePaymentIntent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pi_new_secret", intent.ClientSecret)
	assert.Equal(t, []int64{7500}, f.gateway.created)
}

func TestCreateBookingRecordsProvisioningOutcome(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validRequest("span@example.com"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, validRequest("span@example.com"))
	require.NoError(t, err)

	var outcomes []string
	for _, span := range recorder.Ended() {
		if span.Name() != "booking.create" {
			continue
		}
		for _, ev := range span.Events() {
			if ev.Name != "account.provisioned" {
				continue
			}
			for _, kv := range ev.Attributes {
				if kv.Key == "account.outcome" {
					outcomes = append(outcomes, kv.Value.AsString())
				}
			}
		}
	}

	assert.Equal(t, []string{"created", "existing"}, outcomes)
}
