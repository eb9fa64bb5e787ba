// MCP transport for the storefront cart using the official MCP Go SDK.
// Exposes the cart operations as tools for shopping agents.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/model"
)

// === MCP Meta Types ===
// meta stands in for the headers REST clients send:
// - Storefront-Client device → meta.device
// - Authorization bearer token → meta.token

// MCPMeta represents request metadata in MCP requests.
type MCPMeta struct {
	Device string `json:"device" jsonschema:"device id owning the guest cart"`
	Token  string `json:"token,omitempty" jsonschema:"bearer token of the signed-in shopper"`
}

// === MCP Tool Input/Output Types ===

// CartInput is the input for tools that only need the session.
type CartInput struct {
	Meta MCPMeta `json:"meta" jsonschema:"request metadata"`
}

// LineInput narrows an update or removal to one pack variant.
type LineInput struct {
	IsPack   bool `json:"is_pack" jsonschema:"true for a pack line"`
	PackSize int  `json:"pack_size,omitempty" jsonschema:"pack size of the line"`
}

// PackInput describes a pack purchase option.
type PackInput struct {
	PackSize       int     `json:"pack_size" jsonschema:"units per pack"`
	PackPrice      float64 `json:"pack_price,omitempty" jsonschema:"pack price in major units"`
	SavingsPercent float64 `json:"savings_percent,omitempty" jsonschema:"discount on the pack in percent"`
	Label          string  `json:"label,omitempty" jsonschema:"display label"`
}

// AddToCartInput is the input schema for add_to_cart tool.
type AddToCartInput struct {
	Meta      MCPMeta    `json:"meta" jsonschema:"request metadata"`
	ProductID string     `json:"product_id" jsonschema:"product ID"`
	Quantity  int        `json:"quantity,omitempty" jsonschema:"quantity, default 1; ignored for packs"`
	Pack      *PackInput `json:"pack,omitempty" jsonschema:"buy as a pack"`
}

// UpdateQuantityInput is the input schema for update_cart_quantity tool.
type UpdateQuantityInput struct {
	Meta      MCPMeta    `json:"meta" jsonschema:"request metadata"`
	ProductID string     `json:"product_id" jsonschema:"product ID"`
	Quantity  int        `json:"quantity" jsonschema:"new quantity, at least 1"`
	Line      *LineInput `json:"line,omitempty" jsonschema:"target one pack variant; default is the first line of the product"`
}

// RemoveFromCartInput is the input schema for remove_from_cart tool.
type RemoveFromCartInput struct {
	Meta      MCPMeta    `json:"meta" jsonschema:"request metadata"`
	ProductID string     `json:"product_id" jsonschema:"product ID"`
	Line      *LineInput `json:"line,omitempty" jsonschema:"remove one pack variant; default removes every line of the product"`
}

// CartOutput is returned by every cart tool.
type CartOutput struct {
	Cart     cartView        `json:"cart"`
	Count    int             `json:"count"`
	Messages []model.Message `json:"messages"`
}

// CountOutput is returned by cart_count.
type CountOutput struct {
	Count int `json:"count"`
}

// NewMCPServer creates an MCP server with the cart tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront-cart",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront cart. Every tool takes meta.device identifying the shopper's device; " +
				"pass meta.token to work on the signed-in shopper's cart instead of the guest cart.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the shopper's cart with line items and total.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart, optionally as a pack. Adding a line that exists replaces its quantity.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_quantity",
		Description: "Set the quantity of a cart line.",
	}, h.mcpUpdateQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a product, or one pack variant of it, from the cart.",
	}, h.mcpRemoveFromCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Remove everything from the cart.",
	}, h.mcpClearCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cart_count",
		Description: "Number of units in the cart.",
	}, h.mcpCartCount)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, input CartInput) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Meta, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.FetchCart(ctx)
	})
}

func (h *Handler) mcpAddToCart(ctx context.Context, req *mcp.CallToolRequest, input AddToCartInput) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" {
		return nil, nil, h.mcpError(model.NewValidationError("product_id", "required"))
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	var pack *model.PackDescriptor
	if input.Pack != nil {
		pack = &model.PackDescriptor{
			PackSize:       input.Pack.PackSize,
			PackPrice:      model.FromMajor(input.Pack.PackPrice),
			SavingsPercent: input.Pack.SavingsPercent,
			Label:          input.Pack.Label,
		}
	}

	return h.mcpCartOp(ctx, input.Meta, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		product, err := h.productSnapshot(ctx, addItemRequest{ProductID: input.ProductID})
		if err != nil {
			return nil, err
		}
		return f.AddToCart(ctx, product, quantity, pack)
	})
}

func (h *Handler) mcpUpdateQuantity(ctx context.Context, req *mcp.CallToolRequest, input UpdateQuantityInput) (*mcp.CallToolResult, *CartOutput, error) {
	ref, err := mcpLineRef(input.ProductID, input.Line)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return h.mcpCartOp(ctx, input.Meta, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.UpdateQuantity(ctx, ref, input.Quantity)
	})
}

func (h *Handler) mcpRemoveFromCart(ctx context.Context, req *mcp.CallToolRequest, input RemoveFromCartInput) (*mcp.CallToolResult, *CartOutput, error) {
	ref, err := mcpLineRef(input.ProductID, input.Line)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return h.mcpCartOp(ctx, input.Meta, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.RemoveFromCart(ctx, ref)
	})
}

func (h *Handler) mcpClearCart(ctx context.Context, req *mcp.CallToolRequest, input CartInput) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Meta, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.ClearCart(ctx)
	})
}

func (h *Handler) mcpCartCount(ctx context.Context, req *mcp.CallToolRequest, input CartInput) (*mcp.CallToolResult, *CountOutput, error) {
	f, err := h.sessions.Resolve(ctx, input.Meta.Device, input.Meta.Token)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if !f.Fetched() {
		if _, err := f.FetchCart(ctx); err != nil {
			return nil, nil, h.mcpError(err)
		}
	}
	return nil, &CountOutput{Count: f.CartCount()}, nil
}

// mcpCartOp resolves the session from meta and runs op, collecting messages.
func (h *Handler) mcpCartOp(ctx context.Context, meta MCPMeta, op func(context.Context, *cart.Facade) (*model.Cart, error)) (*mcp.CallToolResult, *CartOutput, error) {
	ctx, collector := cart.WithCollector(ctx)

	f, err := h.sessions.Resolve(ctx, meta.Device, meta.Token)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	c, err := op(ctx, f)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	resp := newCartResponse(c, collector.Messages())
	return nil, &CartOutput{Cart: resp.Cart, Count: resp.Count, Messages: resp.Messages}, nil
}

func mcpLineRef(productID string, line *LineInput) (cart.LineRef, error) {
	if productID == "" {
		return cart.LineRef{}, model.NewValidationError("product_id", "required")
	}
	if line == nil {
		return cart.Ref(productID), nil
	}
	if !line.IsPack {
		return cart.RefLine(model.LineIdentity{ProductID: productID}), nil
	}
	if line.PackSize <= 0 {
		return cart.LineRef{}, model.NewValidationError("pack_size", "must be positive for a pack line")
	}
	return cart.RefLine(model.LineIdentity{ProductID: productID, IsPack: true, PackSize: line.PackSize}), nil
}

// mcpError converts cart errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code != model.CodeInternal {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
