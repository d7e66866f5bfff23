package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"presskit/internal/types"
)

// billingContentType is the JSON:API media type the billing provider requires.
const billingContentType = "application/vnd.api+json"

// CheckoutParams carries everything needed to create a hosted checkout.
// IdentityID travels to the provider as checkout_data.custom.user_id and
// returns on every subscription webhook for correlation.
type CheckoutParams struct {
	StoreID    string
	VariantID  string
	IdentityID string
	TestMode   bool
}

// BillingClientConfig holds the configuration for creating a BillingAPIClient.
type BillingClientConfig struct {
	APIKey  types.SecretString
	BaseURL string
	Logger  *slog.Logger
}

// BillingAPIClient talks to the billing provider's REST API through
// BaseClient. Checkout creation deliberately uses NoRetryPolicy: a duplicate
// POST would mint a second live checkout for the same user.
type BillingAPIClient struct {
	base    *BaseClient
	apiKey  types.SecretString
	baseURL string
	logger  *slog.Logger
}

// NewBillingAPIClient creates a new BillingAPIClient.
func NewBillingAPIClient(httpClient *http.Client, cfg BillingClientConfig) *BillingAPIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"billing",
		NoRetryPolicy(),
		"Presskit/1.0",
	)

	return &BillingAPIClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// NewBillingAPIClientWithBase creates a BillingAPIClient with a pre-configured
// BaseClient. Used in tests to control the resilience behavior.
func NewBillingAPIClientWithBase(base *BaseClient, cfg BillingClientConfig) *BillingAPIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingAPIClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// CreateCheckout creates a hosted checkout session and returns its URL.
//
// Failure taxonomy:
//   - non-2xx with a parseable errors[].detail -> provider_rejected carrying
//     the provider's own message
//   - non-2xx without parseable JSON -> provider_rejected with the raw body
//   - 2xx with a missing or empty checkout URL -> provider_invalid_response
func (c *BillingAPIClient) CreateCheckout(ctx context.Context, params CheckoutParams) (string, error) {
	reqBody := checkoutRequest{}
	reqBody.Data.Type = "checkouts"
	reqBody.Data.Attributes.CheckoutData.Custom = map[string]string{
		"user_id": params.IdentityID,
	}
	reqBody.Data.Attributes.TestMode = params.TestMode
	reqBody.Data.Relationships.Store.Data = resourceRef{Type: "stores", ID: params.StoreID}
	reqBody.Data.Relationships.Variant.Data = resourceRef{Type: "variants", ID: params.VariantID}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode checkout request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(payload))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build checkout request", err)
	}
	req.Header.Set("Accept", billingContentType)
	req.Header.Set("Content-Type", billingContentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.handleErrorResponse(resp)
	}

	var result checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", types.NewAppError(
			types.ErrCodeProviderInvalidResponse,
			"billing provider returned an unparseable checkout response",
			err,
		)
	}

	checkoutURL := strings.TrimSpace(result.Data.Attributes.URL)
	if checkoutURL == "" {
		return "", types.NewAppError(
			types.ErrCodeProviderInvalidResponse,
			"billing provider accepted the checkout but returned no URL",
			nil,
		)
	}

	return checkoutURL, nil
}

// handleErrorResponse maps a non-2xx provider response to provider_rejected,
// preferring the provider's own error detail when the body is parseable.
func (c *BillingAPIClient) handleErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if readErr != nil {
		return types.NewAppError(
			types.ErrCodeProviderRejected,
			fmt.Sprintf("billing provider returned status %d and response body was unreadable", resp.StatusCode),
			readErr,
		)
	}

	var errResp billingErrorResponse
	if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && len(errResp.Errors) > 0 {
		details := make([]string, 0, len(errResp.Errors))
		for _, e := range errResp.Errors {
			if e.Detail != "" {
				details = append(details, e.Detail)
			} else if e.Title != "" {
				details = append(details, e.Title)
			}
		}
		if len(details) > 0 {
			return types.NewAppErrorWithDetails(
				types.ErrCodeProviderRejected,
				strings.Join(details, "; "),
				nil,
				map[string]any{"provider_status": resp.StatusCode},
			)
		}
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeProviderRejected,
		strings.TrimSpace(string(body)),
		nil,
		map[string]any{"provider_status": resp.StatusCode},
	)
}

// ---------------------------------------------------------------------------
// Wire types (JSON:API)
// ---------------------------------------------------------------------------

type resourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type checkoutRequest struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			CheckoutData struct {
				Custom map[string]string `json:"custom"`
			} `json:"checkout_data"`
			TestMode  bool       `json:"test_mode"`
			ExpiresAt *time.Time `json:"expires_at,omitempty"`
		} `json:"attributes"`
		Relationships struct {
			Store struct {
				Data resourceRef `json:"data"`
			} `json:"store"`
			Variant struct {
				Data resourceRef `json:"data"`
			} `json:"variant"`
		} `json:"relationships"`
	} `json:"data"`
}

type checkoutResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			URL string `json:"url"`
		} `json:"attributes"`
	} `json:"data"`
}

type billingErrorResponse struct {
	Errors []billingErrorBody `json:"errors"`
}

type billingErrorBody struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}
