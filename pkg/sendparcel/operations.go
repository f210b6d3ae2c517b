package sendparcel

import (
	"context"
)

// Me returns the account details of the API key owner.
func (c *Client) Me(ctx context.Context) (*Envelope, error) {
	return c.me.Call(ctx, nil)
}

// GetPostcodeDetails returns the city and state for a postcode.
func (c *Client) GetPostcodeDetails(ctx context.Context, req *GetPostcodeDetailsRequest) (*Envelope, error) {
	return c.getPostcodeDetails.Call(ctx, req)
}

// CheckPrice quotes a parcel between two postcodes.
func (c *Client) CheckPrice(ctx context.Context, req *CheckPriceRequest) (*Envelope, error) {
	return c.checkPrice.Call(ctx, req)
}

// CheckPriceBulk quotes several parcels at once.
func (c *Client) CheckPriceBulk(ctx context.Context, req *CheckPriceBulkRequest) (*Envelope, error) {
	return c.checkPriceBulk.Call(ctx, req)
}

// GetParcelSizes lists the accepted parcel size codes.
func (c *Client) GetParcelSizes(ctx context.Context) (*Envelope, error) {
	return c.getParcelSizes.Call(ctx, nil)
}

// GetContentTypes lists the accepted content type codes.
func (c *Client) GetContentTypes(ctx context.Context) (*Envelope, error) {
	return c.getContentTypes.Call(ctx, nil)
}

// CreateShipment adds a shipment to the cart. The returned data carries
// the shipment key used by Checkout.
func (c *Client) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*Envelope, error) {
	return c.createShipment.Call(ctx, req)
}

// GetCartItems lists shipments waiting for checkout.
func (c *Client) GetCartItems(ctx context.Context) (*Envelope, error) {
	return c.getCartItems.Call(ctx, nil)
}

// Checkout pays for the given cart shipments.
func (c *Client) Checkout(ctx context.Context, req *CheckoutRequest) (*Envelope, error) {
	return c.checkout.Call(ctx, req)
}

// GetShipmentStatuses lists the shipment status codes.
func (c *Client) GetShipmentStatuses(ctx context.Context) (*Envelope, error) {
	return c.getShipmentStatuses.Call(ctx, nil)
}

// GetShipments lists shipments matching the filter.
func (c *Client) GetShipments(ctx context.Context, req *GetShipmentsRequest) (*Envelope, error) {
	return c.getShipments.Call(ctx, req)
}

// GetShipmentHistory returns past shipments of the account.
func (c *Client) GetShipmentHistory(ctx context.Context) (*Envelope, error) {
	return c.getShipmentHistory.Call(ctx, nil)
}

// CreateBulkAWB generates consignment notes for paid shipments.
func (c *Client) CreateBulkAWB(ctx context.Context, req *CreateBulkAWBRequest) (*Envelope, error) {
	return c.createBulkAWB.Call(ctx, req)
}

// GetBulkTrackingNo returns tracking numbers for several shipments.
func (c *Client) GetBulkTrackingNo(ctx context.Context, req *GetBulkTrackingNoRequest) (*Envelope, error) {
	return c.getBulkTrackingNo.Call(ctx, req)
}

// Do invokes any operation by path with an untyped payload.
func (c *Client) Do(ctx context.Context, path string, payload any, opts ...CallOption) (*Envelope, error) {
	e, err := LookupEndpoint(path)
	if err != nil {
		return nil, err
	}
	return c.Caller(e).Call(ctx, payload, opts...)
}
