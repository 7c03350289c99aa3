// AngelaMos | 2026
// gateway.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/core"
)

const StatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

// Error carries the processor's human readable message so callers can
// pass it through to the client.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	return []error{core.ErrUpstream, e.Err}
}

type StripeGateway struct {
	api     *client.API
	timeout time.Duration
}

func NewStripeGateway(cfg config.PaymentConfig) *StripeGateway {
	return newStripeGateway(cfg, nil)
}

// newStripeGateway lets tests point the client at a fake API server.
func newStripeGateway(cfg config.PaymentConfig, backendURL *string) *StripeGateway {
	backendCfg := &stripe.BackendConfig{
		URL:               backendURL,
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	})

	return &StripeGateway{
		api:     api,
		timeout: cfg.Timeout,
	}
}

func (g *StripeGateway) CreateIntent(
	ctx context.Context,
	amount int64,
	currency string,
) (*Intent, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeError("create payment intent", err)
	}

	return toIntent(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, wrapStripeError("get payment intent", err)
	}

	return toIntent(pi), nil
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return &Error{Message: stripeErr.Msg, Err: err}
	}
	return &Error{Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}
