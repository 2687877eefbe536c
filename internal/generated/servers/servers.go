// Package servers holds the HTTP API types, the echo server interface and the embedded
// OpenAPI document they follow.
//
// The code is maintained by hand in the layout oapi-codegen uses for echo servers. Any
// change to openapi.json must be mirrored here; TestRegisterHandlersMatchesDocument fails
// when the routes and the document disagree.
package servers

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Defines values for OrderStatus.
const (
	OrderStatusAwaitingPayment   OrderStatus = "AwaitingPayment"
	OrderStatusCancelled         OrderStatus = "Cancelled"
	OrderStatusDelivered         OrderStatus = "Delivered"
	OrderStatusInitialized       OrderStatus = "Initialized"
	OrderStatusOutForDelivery    OrderStatus = "OutForDelivery"
	OrderStatusPacking           OrderStatus = "Packing"
	OrderStatusPaymentConfirmed  OrderStatus = "PaymentConfirmed"
	OrderStatusPaymentFailed     OrderStatus = "PaymentFailed"
	OrderStatusPaymentProcessing OrderStatus = "PaymentProcessing"
	OrderStatusPicking           OrderStatus = "Picking"
	OrderStatusReadyForDelivery  OrderStatus = "ReadyForDelivery"
)

// Address defines model for Address.
type Address struct {
	Apartment *string `json:"apartment,omitempty"`
	Building  string  `json:"building"`
	City      string  `json:"city"`
	Comment   *string `json:"comment,omitempty"`
	Country   string  `json:"country"`
	Street    string  `json:"street"`
}

// Allocation defines model for Allocation.
type Allocation struct {
	LocationCode string `json:"locationCode"`
	Quantity     int    `json:"quantity"`
	Sku          string `json:"sku"`
}

// Error defines model for Error.
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// NewOrder defines model for NewOrder.
type NewOrder struct {
	Address    Address            `json:"address"`
	CustomerId openapi_types.UUID `json:"customerId"`
	Lines      []NewOrderLine     `json:"lines"`
	Metadata   *map[string]string `json:"metadata,omitempty"`
}

// NewOrderLine defines model for NewOrderLine.
type NewOrderLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Sku       string `json:"sku"`
	UnitPrice string `json:"unitPrice"`
}

// Order defines model for Order.
type Order struct {
	Address      Address            `json:"address"`
	Allocations  []Allocation       `json:"allocations"`
	CreatedAt    time.Time          `json:"createdAt"`
	CustomerId   openapi_types.UUID `json:"customerId"`
	History      []Stage            `json:"history"`
	Id           openapi_types.UUID `json:"id"`
	Lines        []OrderLine        `json:"lines"`
	Metadata     *map[string]string `json:"metadata,omitempty"`
	NextStatuses []OrderStatus      `json:"nextStatuses"`
	Number       string             `json:"number"`
	Status       OrderStatus        `json:"status"`
	Total        string             `json:"total"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// OrderLine defines model for OrderLine.
type OrderLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Sku       string `json:"sku"`
	Subtotal  string `json:"subtotal"`
	UnitPrice string `json:"unitPrice"`
}

// OrderStatus defines model for OrderStatus.
type OrderStatus string

// RestockRequest defines model for RestockRequest.
type RestockRequest struct {
	LocationCode string  `json:"locationCode"`
	Quantity     int     `json:"quantity"`
	Zone         *string `json:"zone,omitempty"`
}

// Stage defines model for Stage.
type Stage struct {
	Actor     string      `json:"actor"`
	EnteredAt time.Time   `json:"enteredAt"`
	Note      *string     `json:"note,omitempty"`
	Status    OrderStatus `json:"status"`
}

// StockLevel defines model for StockLevel.
type StockLevel struct {
	Available       int                `json:"available"`
	LastRestockedAt time.Time          `json:"lastRestockedAt"`
	LocationCode    string             `json:"locationCode"`
	LocationId      openapi_types.UUID `json:"locationId"`
	Reserved        int                `json:"reserved"`
	Sku             string             `json:"sku"`
	Total           int                `json:"total"`
	Zone            string             `json:"zone"`
}

// TransitionRequest defines model for TransitionRequest.
type TransitionRequest struct {
	Actor   *string            `json:"actor,omitempty"`
	Note    *string            `json:"note,omitempty"`
	Payload *map[string]string `json:"payload,omitempty"`
	Target  OrderStatus        `json:"target"`
}

// OrderId defines model for OrderId.
type OrderId = openapi_types.UUID

// Sku defines model for Sku.
type Sku = string

// CreateOrderJSONRequestBody defines body for CreateOrder for application/json ContentType.
type CreateOrderJSONRequestBody = NewOrder

// AdvanceOrderStatusJSONRequestBody defines body for AdvanceOrderStatus for application/json ContentType.
type AdvanceOrderStatusJSONRequestBody = TransitionRequest

// RestockStorageLocationJSONRequestBody defines body for RestockStorageLocation for application/json ContentType.
type RestockStorageLocationJSONRequestBody = RestockRequest

// ServerInterface represents all server handlers.
type ServerInterface interface {

	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error

	// (GET /api/v1/orders/{orderId})
	GetOrder(ctx echo.Context, orderId OrderId) error

	// (POST /api/v1/orders/{orderId}/transitions)
	AdvanceOrderStatus(ctx echo.Context, orderId OrderId) error

	// (GET /api/v1/stock/{sku})
	GetStockLevels(ctx echo.Context, sku Sku) error

	// (POST /api/v1/stock/{sku}/restock)
	RestockStorageLocation(ctx echo.Context, sku Sku) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// CreateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	var err error

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.CreateOrder(ctx)
	return err
}

// GetOrder converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId OrderId

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetOrder(ctx, orderId)
	return err
}

// AdvanceOrderStatus converts echo context to params.
func (w *ServerInterfaceWrapper) AdvanceOrderStatus(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "orderId" -------------
	var orderId OrderId

	err = runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.AdvanceOrderStatus(ctx, orderId)
	return err
}

// GetStockLevels converts echo context to params.
func (w *ServerInterfaceWrapper) GetStockLevels(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "sku" -------------
	var sku Sku

	err = runtime.BindStyledParameterWithOptions("simple", "sku", ctx.Param("sku"), &sku, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter sku: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.GetStockLevels(ctx, sku)
	return err
}

// RestockStorageLocation converts echo context to params.
func (w *ServerInterfaceWrapper) RestockStorageLocation(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "sku" -------------
	var sku Sku

	err = runtime.BindStyledParameterWithOptions("simple", "sku", ctx.Param("sku"), &sku, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter sku: %s", err))
	}

	// Invoke the callback with all the unmarshaled arguments
	err = w.Handler.RestockStorageLocation(ctx, sku)
	return err
}

// This is a simple interface which specifies echo.Route addition functions which
// are present on both echo.Echo and echo.Group, since we want to allow using
// either of them for path registration
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// Registers handlers, and prepends BaseURL to the paths, so that the paths
// can be served under a prefix.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {

	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST(baseURL+"/api/v1/orders", wrapper.CreateOrder)
	router.GET(baseURL+"/api/v1/orders/:orderId", wrapper.GetOrder)
	router.POST(baseURL+"/api/v1/orders/:orderId/transitions", wrapper.AdvanceOrderStatus)
	router.GET(baseURL+"/api/v1/stock/:sku", wrapper.GetStockLevels)
	router.POST(baseURL+"/api/v1/stock/:sku/restock", wrapper.RestockStorageLocation)

}

//go:embed openapi.json
var swaggerSpec []byte

// RawSpec returns the OpenAPI document as JSON.
func RawSpec() []byte {
	return swaggerSpec
}

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (swagger *openapi3.T, err error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	swagger, err = loader.LoadFromData(swaggerSpec)
	if err != nil {
		return nil, fmt.Errorf("error loading Swagger: %w", err)
	}
	return swagger, nil
}
