package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	"github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/metrics"
	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	service "github.com/aaravmahajanofficial/sales-savvy/internal/services"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	users       service.UserDirectory
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService, users service.UserDirectory) *CartHandler {
	return &CartHandler{cartService: cartService, users: users, validator: validator.New()}
}

// currentUser resolves the authenticated username to a user id. On failure
// the error response is already written.
func (h *CartHandler) currentUser(w http.ResponseWriter, r *http.Request, operation string) (int64, *slog.Logger, bool) {

	logger := middleware.LoggerFromContext(r.Context())

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Unauthorized cart access attempt: missing user claims")
		err := errors.UnauthorizedError("Authentication required")
		metrics.RecordCartOperation(operation, err)
		response.Error(w, err)
		return 0, logger, false
	}

	userID, err := h.users.ResolveUser(r.Context(), claims.Username)
	if err != nil {
		logger.Error("Failed to resolve user", slog.String("error", err.Error()))
		metrics.RecordCartOperation(operation, err)
		response.Error(w, err)
		return 0, logger, false
	}

	return userID, logger.With(slog.Int64("userId", userID)), true
}

// AddToCart godoc
//	@Summary		Add a product to the cart
//	@Description	Adds the product to the authenticated user's cart. Quantity defaults to 1 and accumulates on repeated adds.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddToCartRequest	true	"Product and quantity"
//	@Success		201		{object}	response.APIResponse	"Item added"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"User or product not found"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/add [post]
func (h *CartHandler) AddToCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := h.currentUser(w, r, "add")
		if !ok {
			return
		}

		var req models.AddToCartRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			metrics.RecordCartOperation("add", errors.ValidationError("Invalid input data"))
			return
		}

		quantity := req.QuantityOrDefault()

		err := h.cartService.AddToCart(r.Context(), userID, req.ProductID, quantity)
		metrics.RecordCartOperation("add", err)
		if err != nil {
			logger.Error("Failed to add item to cart",
				slog.Int64("productId", req.ProductID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.Int64("productId", req.ProductID), slog.Int("quantity", quantity))
		response.Success(w, http.StatusCreated, nil)
	}
}

// GetCartItems godoc
//	@Summary		Get the cart
//	@Description	Returns the authenticated user's cart with per-line and overall totals.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartView			"Cart contents"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"User not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items [get]
func (h *CartHandler) GetCartItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := h.currentUser(w, r, "get")
		if !ok {
			return
		}

		view, err := h.cartService.GetCartItems(r.Context(), userID)
		metrics.RecordCartOperation("get", err)
		if err != nil {
			logger.Error("Failed to fetch cart items", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart retrieved", slog.Int("lines", len(view.Cart.Products)))
		response.WriteJson(w, http.StatusOK, view)
	}
}

// UpdateCartItem godoc
//	@Summary		Set the quantity of a cart line
//	@Description	Overwrites the quantity of a product already in the cart. Zero or less removes the line, a missing line is left alone.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.UpdateCartItemRequest	true	"Product and new quantity"
//	@Success		200		{object}	response.APIResponse			"Cart updated"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse			"User or product not found"
//	@Failure		500		{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/update [put]
func (h *CartHandler) UpdateCartItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := h.currentUser(w, r, "update")
		if !ok {
			return
		}

		var req models.UpdateCartItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			metrics.RecordCartOperation("update", errors.ValidationError("Invalid input data"))
			return
		}

		err := h.cartService.UpdateCartItemQuantity(r.Context(), userID, req.ProductID, *req.Quantity)
		metrics.RecordCartOperation("update", err)
		if err != nil {
			logger.Error("Failed to update cart item",
				slog.Int64("productId", req.ProductID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item updated", slog.Int64("productId", req.ProductID), slog.Int("quantity", *req.Quantity))
		response.Success(w, http.StatusOK, nil)
	}
}

// DeleteCartItem godoc
//	@Summary		Remove a product from the cart
//	@Tags			Cart
//	@Accept			json
//	@Param			item	body	models.DeleteCartItemRequest	true	"Product to remove"
//	@Success		204		"Item removed"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Product is not in the cart"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/delete [delete]
func (h *CartHandler) DeleteCartItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := h.currentUser(w, r, "delete")
		if !ok {
			return
		}

		var req models.DeleteCartItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			metrics.RecordCartOperation("delete", errors.ValidationError("Invalid input data"))
			return
		}

		err := h.cartService.DeleteCartItem(r.Context(), userID, req.ProductID)
		metrics.RecordCartOperation("delete", err)
		if err != nil {
			logger.Warn("Failed to delete cart item",
				slog.Int64("productId", req.ProductID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item deleted", slog.Int64("productId", req.ProductID))
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetCartItemCount godoc
//	@Summary		Count items in the cart
//	@Description	Sum of quantities across all cart lines.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartCountResponse	"Item count"
//	@Failure		401	{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items/count [get]
func (h *CartHandler) GetCartItemCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := h.currentUser(w, r, "count")
		if !ok {
			return
		}

		count, err := h.cartService.GetCartItemCount(r.Context(), userID)
		metrics.RecordCartOperation("count", err)
		if err != nil {
			logger.Error("Failed to count cart items", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.WriteJson(w, http.StatusOK, models.CartCountResponse{Count: count})
	}
}

// ClearCart godoc
//	@Summary		Empty the cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.ClearCartResponse	"Number of removed lines"
//	@Failure		401	{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := h.currentUser(w, r, "clear")
		if !ok {
			return
		}

		removed, err := h.cartService.ClearCart(r.Context(), userID)
		metrics.RecordCartOperation("clear", err)
		if err != nil {
			logger.Error("Failed to clear cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared", slog.Int64("removed", removed))
		response.WriteJson(w, http.StatusOK, models.ClearCartResponse{Removed: removed})
	}
}
