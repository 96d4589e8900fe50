package estrapi

import (
	"context"
	"net/url"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/valyala/fasthttp"
)

// ListRedFlagParameters lists the red-flag parameter sets
func (c *Client) ListRedFlagParameters(ctx context.Context, userID string) ([]*entity.Parameter, error) {
	var params []*entity.Parameter
	if err := c.call(ctx, "list_red_flag_parameters", fasthttp.MethodGet, "/parameters/red-flag", nil, userID, nil, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// GetRedFlagParameter returns the parameter set of one indicator
func (c *Client) GetRedFlagParameter(ctx context.Context, indicator, userID string) (*entity.Parameter, error) {
	var param entity.Parameter
	path := "/parameters/red-flag/" + url.PathEscape(indicator)
	if err := c.call(ctx, "get_red_flag_parameter", fasthttp.MethodGet, path, nil, userID, nil, &param); err != nil {
		return nil, err
	}
	return &param, nil
}

// UpdateRedFlagParameter submits a red-flag parameter change for authorization
func (c *Client) UpdateRedFlagParameter(ctx context.Context, update port.ParameterUpdate) (*entity.Parameter, error) {
	var param entity.Parameter
	path := "/parameters/red-flag/" + url.PathEscape(update.Indicator)
	if err := c.call(ctx, "update_red_flag_parameter", fasthttp.MethodPut, path, nil, update.RequestedBy, update, &param); err != nil {
		return nil, err
	}
	return &param, nil
}

// GetTransactionCodeParameters returns the transaction-code parameter set
func (c *Client) GetTransactionCodeParameters(ctx context.Context, userID string) (*entity.Parameter, error) {
	var param entity.Parameter
	if err := c.call(ctx, "get_transaction_code_parameters", fasthttp.MethodGet, "/parameters/transaction-code", nil, userID, nil, &param); err != nil {
		return nil, err
	}
	return &param, nil
}

// UpdateTransactionCodeParameters submits a transaction-code change for authorization
func (c *Client) UpdateTransactionCodeParameters(ctx context.Context, update port.ParameterUpdate) (*entity.Parameter, error) {
	var param entity.Parameter
	if err := c.call(ctx, "update_transaction_code_parameters", fasthttp.MethodPut, "/parameters/transaction-code", nil, update.RequestedBy, update, &param); err != nil {
		return nil, err
	}
	return &param, nil
}

// ListPendingParameters lists parameter changes awaiting authorization
func (c *Client) ListPendingParameters(ctx context.Context, userID string) ([]*entity.Parameter, error) {
	var params []*entity.Parameter
	if err := c.call(ctx, "list_pending_parameters", fasthttp.MethodGet, "/parameters/pending", nil, userID, nil, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// AuthorizeParameter approves or rejects a pending change
func (c *Client) AuthorizeParameter(ctx context.Context, auth port.ParameterAuthorization) (*entity.Parameter, error) {
	var param entity.Parameter
	path := "/parameters/" + url.PathEscape(auth.ParameterID) + "/authorize"
	if err := c.call(ctx, "authorize_parameter", fasthttp.MethodPost, path, nil, auth.AuthorizedBy, auth, &param); err != nil {
		return nil, err
	}
	return &param, nil
}
