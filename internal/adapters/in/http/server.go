package http

import (
	"context"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/generated/servers"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Use case ports of the REST server. Command handlers are passed by pointer, query
// handlers by value.
type (
	OrderCreator interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (views.OrderDetails, error)
	}

	StockRestocker interface {
		Handle(ctx context.Context, cmd commands.RestockStorageLocationCommand) (views.StockLevel, error)
	}

	OrderReader interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (views.OrderDetails, error)
	}

	StockLevelReader interface {
		Handle(ctx context.Context, query queries.GetStockLevelsQuery) ([]views.StockLevel, error)
	}
)

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler  OrderCreator
	advanceOrderHandler commands.OrderAdvancer
	restockHandler      StockRestocker

	// Query handlers
	getOrderHandler       OrderReader
	getStockLevelsHandler StockLevelReader
}

var _ servers.ServerInterface = (*Server)(nil)

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler OrderCreator,
	advanceOrderHandler commands.OrderAdvancer,
	restockHandler StockRestocker,
	getOrderHandler OrderReader,
	getStockLevelsHandler StockLevelReader,
) (*Server, error) {
	if createOrderHandler == nil {
		return nil, errs.NewValueIsRequiredError("createOrderHandler")
	}
	if advanceOrderHandler == nil {
		return nil, errs.NewValueIsRequiredError("advanceOrderHandler")
	}
	if restockHandler == nil {
		return nil, errs.NewValueIsRequiredError("restockHandler")
	}
	if getOrderHandler == nil {
		return nil, errs.NewValueIsRequiredError("getOrderHandler")
	}
	if getStockLevelsHandler == nil {
		return nil, errs.NewValueIsRequiredError("getStockLevelsHandler")
	}

	return &Server{
		createOrderHandler:    createOrderHandler,
		advanceOrderHandler:   advanceOrderHandler,
		restockHandler:        restockHandler,
		getOrderHandler:       getOrderHandler,
		getStockLevelsHandler: getStockLevelsHandler,
	}, nil
}

// CreateOrder handles POST /api/v1/orders - creates an order in Initialized.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var newOrder servers.NewOrder
	if err := ctx.Bind(&newOrder); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}

	cmd, err := toCreateOrderCommand(newOrder)
	if err != nil {
		return writeError(ctx, err)
	}

	details, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toOrder(details))
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, orderId servers.OrderId) error {
	orderID, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return writeError(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return writeError(ctx, err)
	}

	details, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrder(details))
}

// AdvanceOrderStatus handles POST /api/v1/orders/{orderId}/transitions.
func (s *Server) AdvanceOrderStatus(ctx echo.Context, orderId servers.OrderId) error {
	var request servers.TransitionRequest
	if err := ctx.Bind(&request); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}

	orderID, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return writeError(ctx, err)
	}
	target, err := order.ParseStatus(string(request.Target))
	if err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewAdvanceOrderStatusCommand(
		orderID, target, deref(request.Actor), deref(request.Note), derefMap(request.Payload),
	)
	if err != nil {
		return writeError(ctx, err)
	}

	details, err := s.advanceOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrder(details))
}

// GetStockLevels handles GET /api/v1/stock/{sku}.
func (s *Server) GetStockLevels(ctx echo.Context, sku servers.Sku) error {
	query, err := queries.NewGetStockLevelsQuery(sku)
	if err != nil {
		return writeError(ctx, err)
	}

	levels, err := s.getStockLevelsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]servers.StockLevel, len(levels))
	for i, level := range levels {
		response[i] = toStockLevel(level)
	}

	return ctx.JSON(http.StatusOK, response)
}

// RestockStorageLocation handles POST /api/v1/stock/{sku}/restock.
func (s *Server) RestockStorageLocation(ctx echo.Context, sku servers.Sku) error {
	var request servers.RestockRequest
	if err := ctx.Bind(&request); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}

	cmd, err := commands.NewRestockStorageLocationCommand(sku, request.LocationCode, deref(request.Zone), request.Quantity)
	if err != nil {
		return writeError(ctx, err)
	}

	level, err := s.restockHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toStockLevel(level))
}
