package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anycompanyretail/shopbot/pkg/orders"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
)

// Retail tool names.
const (
	ToolRetrieveProducts    = "retrieve_products"
	ToolAddProductToCart    = "add_product_to_cart"
	ToolGetOrdersForReturn  = "get_orders_for_return"
	ToolGetReturnItems      = "get_return_items"
	ToolGetReturnReasons    = "get_return_reasons"
	ToolGetEmailForReturn   = "get_email_for_return"
	ToolGenerateReturnLabel = "generate_return_label"
)

// NewRetailRegistry builds the shopping assistant's tool set: catalog search,
// cart, and the return workflow.
func NewRetailRegistry(ret *retriever.Retriever, store orders.Store, logger *slog.Logger) (*Registry, error) {
	if ret == nil {
		return nil, errors.New("retail tools require a retriever")
	}
	if store == nil {
		return nil, errors.New("retail tools require an order store")
	}

	return NewRegistry(
		&Descriptor{
			Name: ToolRetrieveProducts,
			Description: "Find and suggest products from catalog based on users needs or preferences in the query. " +
				"Requires full 'input' question as query. " +
				"Useful for when a user is searching for products, asking for details, or want to buy some product. " +
				"Useful for finding products with name, description, color, size, weight and other product attributes. " +
				"Return the output without processing further.",
			Params: []Param{{Name: "query", Description: "the user's full question"}},
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				docs, err := ret.Retrieve(ctx, args["query"])
				if err != nil {
					return "", err
				}

				var sb strings.Builder
				for _, doc := range docs {
					sb.WriteString(doc.Text)
					sb.WriteString("\n")
				}

				logger.Debug("retrieved catalog products", "count", len(docs))
				return sb.String(), nil
			},
		},

		&Descriptor{
			Name: ToolAddProductToCart,
			Description: "Adds product to shopping cart. " +
				"Use this tool when user wants to buy a product or ask to add product to cart. " +
				"Return the output without processing further.",
			Params:       []Param{{Name: "product", Description: "the product to add"}},
			DirectReturn: true,
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				return fmt.Sprintf("Added '%s' to cart.", args["product"]), nil
			},
		},

		&Descriptor{
			Name: ToolGetOrdersForReturn,
			Description: "Gets list of orders available for return request. " +
				"Use this tool to get list of orders when user wants to return items or want to create return request. " +
				"Return orderId and Items and ask user to 'Select items for return & reason for return from the list'.",
			Params: []Param{{Name: "query", Description: "the user's request"}},
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				returnable, err := store.ReturnableOrders(ctx)
				if err != nil {
					return "", err
				}

				var sb strings.Builder
				for _, order := range returnable {
					sb.WriteString(formatOrder(order))
					sb.WriteString(" \n\n")
				}

				return fmt.Sprintf(
					"Please specify a product you want to initiate return for in the format 'OrderId, Product, Quantity, Return Reason': \n\n %s Return Reasons: \n %s",
					sb.String(), formatReasons(),
				), nil
			},
		},

		&Descriptor{
			Name: ToolGetReturnItems,
			Description: "Gets the list of products in order with order_no. " +
				"Use it ONLY when the user asks for returning the products and gives the order number. " +
				"For example `I would like to return products for order OT1002.` " +
				"Return the output without processing further.",
			Params: []Param{{Name: "order_no", Description: "the order number"}},
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				order, err := store.ItemsForOrder(ctx, strings.TrimSpace(args["order_no"]))
				if err != nil {
					return "", err
				}

				return fmt.Sprintf(
					"Please specify 'Product, Quantity: \n\n %s \n\n also mention Return Reason: \n %s",
					formatOrder(order), formatReasons(),
				), nil
			},
		},

		&Descriptor{
			Name: ToolGetReturnReasons,
			Description: "Gets the list of reasons for return. " +
				"Use this to get list of return reasons once the user selects a product to return. " +
				"Return the output without processing further.",
			Params:       []Param{{Name: "product", Description: "the product selected for return"}},
			DirectReturn: true,
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				return fmt.Sprintf(
					"Added %s for return. Please select reason for your return: \n\n %s",
					args["product"], formatReasons(),
				), nil
			},
		},

		&Descriptor{
			Name: ToolGetEmailForReturn,
			Description: "Confirm email address. " +
				"Use this to get email address once the user selects a reason for return and only if user has not provided email address already. " +
				"Return the output without processing further.",
			Params:       []Param{{Name: "reason", Description: "the selected return reason"}},
			DirectReturn: true,
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				return "Please provide email address for sending return label.", nil
			},
		},

		&Descriptor{
			Name: ToolGenerateReturnLabel,
			Description: "Generates return request label and sends it to email. " +
				"Use this tool after user has selected product, quantity, return reason & gives email address for return. " +
				"Also ask user if you can assist with anything else. " +
				"Return the output without processing further.",
			Params: []Param{
				{Name: "order_no", Description: "the order number"},
				{Name: "email", Description: "email address for the return label"},
				{Name: "product", Description: "the product to return"},
				{Name: "quantity", Description: "quantity to return"},
				{Name: "reason", Description: "reason for the return"},
			},
			Handler: func(ctx context.Context, args map[string]string) (string, error) {
				summary := fmt.Sprintf(
					"Summary of return request: \nOrder ID: %s\nProduct: %s\nQuantity: %s\nReturn Reason: %s\nEmail for return label: %s",
					args["order_no"], args["product"], args["quantity"], args["reason"], args["email"],
				)

				return fmt.Sprintf(
					"%s \n\n Sent return label to given email address %s for order %s. Please return the items within 7 days. Refund will be completed within 30 days of receiving items. \n\n Can I assist you with anything else today?",
					summary, args["email"], args["order_no"],
				), nil
			},
		},
	)
}

func formatOrder(order orders.Order) string {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("- %s, Price: %s,  Qty: %s", item.Name, item.Price, item.Quantity))
	}
	return fmt.Sprintf("OrderId: %s \n %s", order.ID, strings.Join(lines, "\n "))
}

func formatReasons() string {
	reasons := orders.ReturnReasons()
	lines := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		lines = append(lines, "- "+reason)
	}
	return strings.Join(lines, "\n ")
}
