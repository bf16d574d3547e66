package payments

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	config "github.com/mwangi2684/coachmarket/configs"
)

// StripeService talks to the payment processor's REST API. All requests are
// form-encoded per the Stripe wire format; amounts are integer cents.
type StripeService struct {
	APIBase   string
	SecretKey string
	Client    *http.Client
}

func NewStripeService() *StripeService {
	apiBase := config.Config("STRIPE_API_BASE_URL")
	if apiBase == "" {
		apiBase = "https://api.stripe.com"
	}
	return &StripeService{
		APIBase:   apiBase,
		SecretKey: config.Config("STRIPE_SECRET_KEY"),
		Client:    http.DefaultClient,
	}
}

type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	Status        string `json:"status"`
}

type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	LatestCharge string `json:"latest_charge"`
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type Transfer struct {
	ID string `json:"id"`
}

type Account struct {
	ID               string `json:"id"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *StripeService) do(method, path, idempotencyKey string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.APIBase, path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.SecretKey))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var stripeErr stripeErrorBody
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &stripeErr) == nil && stripeErr.Error.Message != "" {
			return fmt.Errorf("stripe %s %s: %s", method, path, stripeErr.Error.Message)
		}
		return fmt.Errorf("stripe %s %s: status %s", method, path, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateCheckout opens a checkout session routed to the coach's connected
// account. Metadata carries the booking/course correlation ids the webhook
// needs to confirm the purchase.
func (s *StripeService) CreateCheckout(amountCents int64, currency, destinationAccount string, metadata map[string]string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Coaching session")
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", config.Config("CHECKOUT_SUCCESS_URL"))
	form.Set("cancel_url", config.Config("CHECKOUT_CANCEL_URL"))
	if destinationAccount != "" {
		form.Set("payment_intent_data[transfer_data][destination]", destinationAccount)
	}
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var session CheckoutSession
	if err := s.do("POST", "/v1/checkout/sessions", "", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *StripeService) RetrievePaymentIntent(ref string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := s.do("GET", fmt.Sprintf("/v1/payment_intents/%s", ref), "", nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (s *StripeService) CreateRefund(chargeID string, amountCents int64, reason string, metadata map[string]string) (*Refund, error) {
	form := url.Values{}
	form.Set("charge", chargeID)
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	if reason != "" {
		form.Set("metadata[reason]", reason)
	}
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var refund Refund
	if err := s.do("POST", "/v1/refunds", "", form, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// CreateTransfer moves funds to a connected account. The idempotency key
// makes reruns of the same payout period safe at the processor side.
func (s *StripeService) CreateTransfer(amountCents int64, currency, destinationAccount string, metadata map[string]string, idempotencyKey string) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("destination", destinationAccount)
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var transfer Transfer
	if err := s.do("POST", "/v1/transfers", idempotencyKey, form, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *StripeService) RetrieveAccount(accountID string) (*Account, error) {
	var account Account
	if err := s.do("GET", fmt.Sprintf("/v1/accounts/%s", accountID), "", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
