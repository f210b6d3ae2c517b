package sendparcel

import (
	"net/http"
)

// Endpoint identifies a remote operation by verb and path.
// Path is relative to the base URL and has no leading slash.
type Endpoint struct {
	Method string
	Path   string
}

// String returns "METHOD path".
func (e Endpoint) String() string {
	return e.Method + " " + e.Path
}

// SendParcel exposes every operation as a form POST.
var (
	EndpointMe                  = Endpoint{Method: http.MethodPost, Path: "me"}
	EndpointGetPostcodeDetails  = Endpoint{Method: http.MethodPost, Path: "get_postcode_details"}
	EndpointCheckPrice          = Endpoint{Method: http.MethodPost, Path: "check_price"}
	EndpointCheckPriceBulk      = Endpoint{Method: http.MethodPost, Path: "check_price_bulk"}
	EndpointGetParcelSizes      = Endpoint{Method: http.MethodPost, Path: "get_parcel_sizes"}
	EndpointGetContentTypes     = Endpoint{Method: http.MethodPost, Path: "get_content_types"}
	EndpointCreateShipment      = Endpoint{Method: http.MethodPost, Path: "create_shipment"}
	EndpointGetCartItems        = Endpoint{Method: http.MethodPost, Path: "get_cart_items"}
	EndpointCheckout            = Endpoint{Method: http.MethodPost, Path: "checkout"}
	EndpointGetShipmentStatuses = Endpoint{Method: http.MethodPost, Path: "get_shipment_statuses"}
	EndpointGetShipments        = Endpoint{Method: http.MethodPost, Path: "get_shipments"}
	EndpointGetShipmentHistory  = Endpoint{Method: http.MethodPost, Path: "get_shipment_history"}
	EndpointCreateBulkAWB       = Endpoint{Method: http.MethodPost, Path: "create_bulk_awb"}
	EndpointGetBulkTrackingNo   = Endpoint{Method: http.MethodPost, Path: "get_bulk_tracking_no"}
)

var endpoints = []Endpoint{
	EndpointMe,
	EndpointGetPostcodeDetails,
	EndpointCheckPrice,
	EndpointCheckPriceBulk,
	EndpointGetParcelSizes,
	EndpointGetContentTypes,
	EndpointCreateShipment,
	EndpointGetCartItems,
	EndpointCheckout,
	EndpointGetShipmentStatuses,
	EndpointGetShipments,
	EndpointGetShipmentHistory,
	EndpointCreateBulkAWB,
	EndpointGetBulkTrackingNo,
}

// Endpoints returns all known operations.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(endpoints))
	copy(out, endpoints)
	return out
}

// LookupEndpoint finds a known operation by path.
func LookupEndpoint(path string) (Endpoint, error) {
	for _, e := range endpoints {
		if e.Path == path {
			return e, nil
		}
	}
	return Endpoint{}, &UnknownEndpointError{Path: path}
}

// ============================================================================
// Request Types (form field names match the SendParcel API)
// ============================================================================

// GetPostcodeDetailsRequest looks up the city and state of a postcode.
type GetPostcodeDetailsRequest struct {
	Postcode string `mapstructure:"postcode"`
}

// CheckPriceRequest quotes a single parcel.
type CheckPriceRequest struct {
	SenderPostcode      string `mapstructure:"sender_postcode"`
	ReceiverPostcode    string `mapstructure:"receiver_postcode"`
	ReceiverCountryCode string `mapstructure:"receiver_country_code"`
	DeclaredWeight      string `mapstructure:"declared_weight"` // kg, e.g. "0.1"
}

// CheckPriceBulkRequest quotes several parcels in one call.
type CheckPriceBulkRequest struct {
	Items []CheckPriceRequest `mapstructure:"items"`
}

// CreateShipmentRequest adds a shipment to the cart.
type CreateShipmentRequest struct {
	SendMethod         string `mapstructure:"send_method"` // "dropoff" or "pickup"
	SendDate           string `mapstructure:"send_date"`   // YYYY-MM-DD
	Type               string `mapstructure:"type"`        // "document" or "parcel"
	DeclaredWeight     string `mapstructure:"declared_weight"`
	Size               string `mapstructure:"size"` // from GetParcelSizes, e.g. "flyers_l"
	ProviderCode       string `mapstructure:"provider_code"`
	ContentType        string `mapstructure:"content_type"` // from GetContentTypes
	ContentDescription string `mapstructure:"content_description"`
	ContentValue       string `mapstructure:"content_value"`

	SenderName         string `mapstructure:"sender_name"`
	SenderPhone        string `mapstructure:"sender_phone"`
	SenderEmail        string `mapstructure:"sender_email"`
	SenderAddressLine1 string `mapstructure:"sender_address_line_1"`
	SenderAddressLine2 string `mapstructure:"sender_address_line_2,omitempty"`
	SenderAddressLine3 string `mapstructure:"sender_address_line_3,omitempty"`
	SenderAddressLine4 string `mapstructure:"sender_address_line_4,omitempty"`
	SenderPostcode     string `mapstructure:"sender_postcode"`

	ReceiverName         string `mapstructure:"receiver_name"`
	ReceiverPhone        string `mapstructure:"receiver_phone"`
	ReceiverEmail        string `mapstructure:"receiver_email"`
	ReceiverAddressLine1 string `mapstructure:"receiver_address_line_1"`
	ReceiverAddressLine2 string `mapstructure:"receiver_address_line_2"`
	ReceiverAddressLine3 string `mapstructure:"receiver_address_line_3"`
	ReceiverAddressLine4 string `mapstructure:"receiver_address_line_4"`
	ReceiverPostcode     string `mapstructure:"receiver_postcode"`
	ReceiverCountryCode  string `mapstructure:"receiver_country_code"`
}

// CheckoutRequest pays for shipments in the cart.
type CheckoutRequest struct {
	ShipmentKeys []string `mapstructure:"shipment_keys"`
}

// GetShipmentsRequest filters the shipment listing.
type GetShipmentsRequest struct {
	ShipmentKeys []string `mapstructure:"shipment_keys,omitempty"`
	Status       string   `mapstructure:"status,omitempty"`
	Page         int      `mapstructure:"page,omitempty"`
}

// CreateBulkAWBRequest generates consignment notes for paid shipments.
type CreateBulkAWBRequest struct {
	ShipmentKeys []string `mapstructure:"shipment_keys"`
}

// GetBulkTrackingNoRequest fetches tracking numbers for several shipments.
type GetBulkTrackingNoRequest struct {
	ShipmentKeys []string `mapstructure:"shipment_keys"`
}
