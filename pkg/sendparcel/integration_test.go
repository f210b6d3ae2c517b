//go:build integration

package sendparcel_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/sendparcel/pkg/sendparcel"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Runs against the public sandbox:
//
//	APIKEY=... go test -tags integration ./pkg/sendparcel/...
func newSandboxClient(t *testing.T) *sendparcel.Client {
	t.Helper()

	_ = godotenv.Load("../../.env")
	apiKey := os.Getenv("SENDPARCEL_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("APIKEY")
	}
	if apiKey == "" {
		t.Skip("SENDPARCEL_API_KEY not set")
	}

	client, err := sendparcel.New(sendparcel.Config{
		APIKey:  apiKey,
		Sandbox: true,
		Timeout: 30 * time.Second,
	}, otelzap.New(zap.NewNop()), nil)
	require.NoError(t, err)
	return client
}

func TestSandbox_Me(t *testing.T) {
	client := newSandboxClient(t)

	resp, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Status)
	assert.Equal(t, "success", resp.Message)
}

func TestSandbox_GetPostcodeDetails(t *testing.T) {
	client := newSandboxClient(t)
	ctx := context.Background()

	resp, err := client.GetPostcodeDetails(ctx, &sendparcel.GetPostcodeDetailsRequest{Postcode: "08000"})
	require.NoError(t, err)
	assert.True(t, resp.Status)
	assert.Equal(t, "success", resp.Message)

	var data struct {
		City string `json:"city"`
	}
	require.NoError(t, resp.DecodeData(&data))
	assert.Equal(t, "Sungai Petani", data.City)

	resp, err = client.GetPostcodeDetails(ctx, &sendparcel.GetPostcodeDetailsRequest{Postcode: "0"})
	require.NoError(t, err)
	assert.False(t, resp.Status)
	assert.Equal(t, "Missing [postcode] parameter/value", resp.Message)
}

func TestSandbox_CheckPrice_InvalidSender(t *testing.T) {
	client := newSandboxClient(t)

	resp, err := client.CheckPrice(context.Background(), &sendparcel.CheckPriceRequest{
		SenderPostcode:      "551001",
		ReceiverPostcode:    "08000",
		ReceiverCountryCode: "MY",
		DeclaredWeight:      "0.1",
	})
	require.NoError(t, err)
	assert.False(t, resp.Status)
	assert.Equal(t, `Invalid [sender_postcode]. "551001" does not exist`, resp.Message)
}

func TestSandbox_CreateShipmentAndCheckout(t *testing.T) {
	client := newSandboxClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shipment, err := client.CreateShipment(ctx, testShipment())
	require.NoError(t, err)
	require.True(t, shipment.Status, shipment.Message)

	var created struct {
		Key string `json:"key"`
	}
	require.NoError(t, shipment.DecodeData(&created))

	checkout, err := client.Checkout(ctx, &sendparcel.CheckoutRequest{ShipmentKeys: []string{created.Key}})
	require.NoError(t, err)
	assert.True(t, checkout.Status, checkout.Message)
}
