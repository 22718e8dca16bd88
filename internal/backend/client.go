package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/younghoyk/mr-daebak-order/internal/metrics"
	"github.com/younghoyk/mr-daebak-order/internal/models"
	"github.com/younghoyk/mr-daebak-order/internal/patterns"
)

const serviceName = "orderflow-service"

// Client talks to the ordering backend: catalog reads, product
// materialization, cart lifecycle and the dialogue service. Product and
// dialogue calls run through circuit breakers; product materialization is
// additionally bounded by a bulkhead since several instances may
// materialize concurrently.
type Client struct {
	http            *resty.Client
	dialogueHTTP    *resty.Client
	baseURL         string
	productCircuit  *patterns.CircuitBreakerWrapper
	dialogueCircuit *patterns.CircuitBreakerWrapper
	productBulkhead *patterns.Bulkhead
}

// NewClient builds a Client against the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(patterns.DefaultTimeout).
			SetRetryCount(0), // no automatic retries, failures surface to the user
		dialogueHTTP: resty.New().
			SetTimeout(patterns.SlowServiceTimeout).
			SetRetryCount(0),
		baseURL:         baseURL,
		productCircuit:  patterns.NewCircuitBreaker("Product", serviceName),
		dialogueCircuit: patterns.NewCircuitBreaker("Dialogue", serviceName),
		productBulkhead: patterns.NewBulkhead(8, "product", serviceName),
	}
}

// ListDinners fetches the dinner catalog.
func (c *Client) ListDinners(ctx context.Context, token string) ([]models.Dinner, error) {
	var dinners []models.Dinner
	if err := c.get(ctx, token, "/api/dinners", &dinners); err != nil {
		return nil, fmt.Errorf("list dinners: %w", err)
	}
	return dinners, nil
}

// ListServingStyles fetches the serving-style catalog.
func (c *Client) ListServingStyles(ctx context.Context, token string) ([]models.ServingStyle, error) {
	var styles []models.ServingStyle
	if err := c.get(ctx, token, "/api/serving-styles", &styles); err != nil {
		return nil, fmt.Errorf("list serving styles: %w", err)
	}
	return styles, nil
}

// ListMenuItems fetches the menu-item catalog.
func (c *Client) ListMenuItems(ctx context.Context, token string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.get(ctx, token, "/api/menu-items", &items); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

// ListDinnerMenuItems fetches a dinner's default menu composition.
func (c *Client) ListDinnerMenuItems(ctx context.Context, token string, dinnerID int64) ([]models.DinnerMenuItem, error) {
	var items []models.DinnerMenuItem
	path := fmt.Sprintf("/api/dinners/%d/menu-items", dinnerID)
	if err := c.get(ctx, token, path, &items); err != nil {
		return nil, fmt.Errorf("list dinner menu items: %w", err)
	}
	return items, nil
}

// CreateProduct materializes one dinner instance into a priced product.
func (c *Client) CreateProduct(ctx context.Context, token string, req models.CreateProductRequest) (*models.Product, error) {
	product, err := c.createProduct(ctx, token, "/api/products", req)
	if err != nil {
		metrics.ProductCreationsTotal.WithLabelValues("dinner", "failed").Inc()
		return nil, fmt.Errorf("create product: %w", err)
	}
	metrics.ProductCreationsTotal.WithLabelValues("dinner", "created").Inc()
	return product, nil
}

// CreateAdditionalProduct materializes a global add-on menu item.
func (c *Client) CreateAdditionalProduct(ctx context.Context, token string, req models.CreateAdditionalProductRequest) (*models.Product, error) {
	product, err := c.createProduct(ctx, token, "/api/products/additional", req)
	if err != nil {
		metrics.ProductCreationsTotal.WithLabelValues("additional", "failed").Inc()
		return nil, fmt.Errorf("create additional product: %w", err)
	}
	metrics.ProductCreationsTotal.WithLabelValues("additional", "created").Inc()
	return product, nil
}

func (c *Client) createProduct(ctx context.Context, token, path string, body any) (*models.Product, error) {
	var product *models.Product

	err := c.productBulkhead.Execute(func() error {
		result, cbErr := c.productCircuit.Execute(func() (interface{}, error) {
			resp, httpErr := c.http.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetAuthToken(token).
				SetBody(body).
				Post(c.baseURL + path)

			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}
			if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
				return nil, apiError(resp)
			}

			var p models.Product
			if err := json.Unmarshal(resp.Body(), &p); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}
			return &p, nil
		})
		if cbErr != nil {
			return patterns.FormatError("Product", cbErr)
		}
		product = result.(*models.Product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// CreateCart creates a cart from materialized products.
func (c *Client) CreateCart(ctx context.Context, token string, req models.CreateCartRequest) (int64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(token).
		SetBody(req).
		Post(c.baseURL + "/api/carts")

	if err != nil {
		return 0, fmt.Errorf("create cart: HTTP error: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return 0, fmt.Errorf("create cart: %w", apiError(resp))
	}

	var created models.CreateCartResponse
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return 0, fmt.Errorf("create cart: failed to parse response: %w", err)
	}
	return created.CartID, nil
}

// Checkout submits a cart and returns the authoritative order.
func (c *Client) Checkout(ctx context.Context, token string, cartID int64) (*models.OrderResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(token).
		Post(fmt.Sprintf("%s/api/carts/%d/checkout", c.baseURL, cartID))

	if err != nil {
		return nil, fmt.Errorf("checkout: HTTP error: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("checkout: %w", apiError(resp))
	}

	var order models.OrderResult
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return nil, fmt.Errorf("checkout: failed to parse response: %w", err)
	}
	return &order, nil
}

// DialogueTurn sends one user utterance plus the current order snapshot to
// the dialogue service.
func (c *Client) DialogueTurn(ctx context.Context, token string, req models.DialogueRequest) (*models.DialogueResponse, error) {
	result, cbErr := c.dialogueCircuit.Execute(func() (interface{}, error) {
		resp, httpErr := c.dialogueHTTP.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetAuthToken(token).
			SetBody(req).
			Post(c.baseURL + "/api/dialogue/turn")

		if httpErr != nil {
			return nil, fmt.Errorf("HTTP error: %w", httpErr)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, apiError(resp)
		}

		var dr models.DialogueResponse
		if err := json.Unmarshal(resp.Body(), &dr); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return &dr, nil
	})
	if cbErr != nil {
		metrics.DialogueTurnsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("dialogue turn: %w", patterns.FormatError("Dialogue", cbErr))
	}

	metrics.DialogueTurnsTotal.WithLabelValues("ok").Inc()
	return result.(*models.DialogueResponse), nil
}

// CircuitStatus reports the state of the outbound circuit breakers.
func (c *Client) CircuitStatus() map[string]any {
	return map[string]any{
		"product_circuit": map[string]any{
			"state": c.productCircuit.GetState(),
			"value": c.productCircuit.GetStateValue(),
		},
		"dialogue_circuit": map[string]any{
			"state": c.dialogueCircuit.GetState(),
			"value": c.dialogueCircuit.GetStateValue(),
		},
	}
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(c.baseURL + path)

	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return apiError(resp)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	log.WithFields(log.Fields{"path": path, "status": resp.StatusCode()}).Debug("backend read")
	return nil
}
