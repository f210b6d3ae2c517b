package sendparceltest

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Postcodes known to the fake, keyed by postcode.
var Postcodes = map[string]PostcodeDetails{
	"08000": {Postcode: "08000", City: "Sungai Petani", State: "Kedah"},
	"55100": {Postcode: "55100", City: "Kuala Lumpur", State: "Wilayah Persekutuan Kuala Lumpur"},
	"62000": {Postcode: "62000", City: "Putrajaya", State: "Wilayah Persekutuan Putrajaya"},
	"10050": {Postcode: "10050", City: "George Town", State: "Pulau Pinang"},
}

// PostcodeDetails is the data returned by get_postcode_details.
type PostcodeDetails struct {
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	State    string `json:"state"`
}

type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(data any) Response {
	return Response{StatusCode: http.StatusOK, Body: envelope{Status: true, Message: "success", Data: data}}
}

func reject(message string) Response {
	return Response{StatusCode: http.StatusOK, Body: envelope{Status: false, Message: message}}
}

type shipment struct {
	Key              string `json:"key"`
	SendMethod       string `json:"send_method"`
	SendDate         string `json:"send_date"`
	Type             string `json:"type"`
	Size             string `json:"size"`
	ProviderCode     string `json:"provider_code"`
	SenderPostcode   string `json:"sender_postcode"`
	ReceiverName     string `json:"receiver_name"`
	ReceiverPostcode string `json:"receiver_postcode"`
	Price            string `json:"price"`
	TrackingNo       string `json:"tracking_no,omitempty"`
	Status           string `json:"status"`
}

type state struct {
	mu      sync.Mutex
	seq     int
	cart    []*shipment
	shipped []*shipment
}

func newState() *state {
	return &state{}
}

func (s *Server) fixture(req Request) Response {
	f := req.Form
	switch req.Path {
	case "me":
		return success(map[string]any{
			"name":           "Sandbox Account",
			"email":          "sandbox@example.com",
			"credit_balance": "100.00",
		})

	case "get_postcode_details":
		return postcodeDetails(f.Get("postcode"))

	case "check_price":
		if r, ok := validateRoute(f.Get("sender_postcode"), f.Get("receiver_postcode")); !ok {
			return r
		}
		return success(map[string]any{"prices": prices(f.Get("declared_weight"))})

	case "check_price_bulk":
		items := indexedMaps(f, "items")
		results := make([]map[string]any, 0, len(items))
		for _, it := range items {
			entry := map[string]any{
				"sender_postcode":   it["sender_postcode"],
				"receiver_postcode": it["receiver_postcode"],
			}
			if r, ok := validateRoute(it["sender_postcode"], it["receiver_postcode"]); !ok {
				entry["status"] = false
				entry["message"] = r.Body.(envelope).Message
			} else {
				entry["status"] = true
				entry["prices"] = prices(it["declared_weight"])
			}
			results = append(results, entry)
		}
		return success(results)

	case "get_parcel_sizes":
		return success(map[string]any{
			"flyers_s": map[string]any{"name": "Flyers S", "max_weight": "0.5"},
			"flyers_m": map[string]any{"name": "Flyers M", "max_weight": "1"},
			"flyers_l": map[string]any{"name": "Flyers L", "max_weight": "2"},
			"box":      map[string]any{"name": "Box", "max_weight": "30"},
		})

	case "get_content_types":
		return success(map[string]any{
			"general":     "General",
			"electronics": "Electronics",
			"outdoors":    "Outdoors",
			"fashion":     "Fashion",
		})

	case "create_shipment":
		return s.state.createShipment(f)

	case "get_cart_items":
		return success(s.state.cartItems())

	case "checkout":
		return s.state.checkout(indexed(f, "shipment_keys"))

	case "get_shipment_statuses":
		return success(map[string]any{
			"pending":    "Pending",
			"paid":       "Paid",
			"in_transit": "In Transit",
			"delivered":  "Delivered",
		})

	case "get_shipments":
		return success(s.state.shipments(indexed(f, "shipment_keys")))

	case "get_shipment_history":
		return success(s.state.shipments(nil))

	case "create_bulk_awb":
		keys := indexed(f, "shipment_keys")
		if len(keys) == 0 {
			return reject("Missing [shipment_keys] parameter/value")
		}
		return success(map[string]any{
			"shipment_keys": keys,
			"awb_url":       "https://sendparcel.example/awb/" + strings.Join(keys, "-") + ".pdf",
		})

	case "get_bulk_tracking_no":
		keys := indexed(f, "shipment_keys")
		if len(keys) == 0 {
			return reject("Missing [shipment_keys] parameter/value")
		}
		return success(s.state.trackingNumbers(keys))
	}

	return Response{StatusCode: http.StatusNotFound, Body: envelope{Status: false, Message: "Not Found"}}
}

func postcodeDetails(postcode string) Response {
	if len(postcode) != 5 {
		return reject("Missing [postcode] parameter/value")
	}
	d, ok := Postcodes[postcode]
	if !ok {
		return reject(fmt.Sprintf("Invalid [postcode]. %q does not exist", postcode))
	}
	return success(d)
}

func validateRoute(sender, receiver string) (Response, bool) {
	if sender == "" {
		return reject("Missing [sender_postcode] parameter/value"), false
	}
	if _, ok := Postcodes[sender]; !ok {
		return reject(fmt.Sprintf("Invalid [sender_postcode]. %q does not exist", sender)), false
	}
	if receiver == "" {
		return reject("Missing [receiver_postcode] parameter/value"), false
	}
	if _, ok := Postcodes[receiver]; !ok {
		return reject(fmt.Sprintf("Invalid [receiver_postcode]. %q does not exist", receiver)), false
	}
	return Response{}, true
}

func prices(weight string) []map[string]any {
	w, err := strconv.ParseFloat(weight, 64)
	if err != nil || w <= 0 {
		w = 0.1
	}
	base := 6.0 + w*2
	return []map[string]any{
		{"provider_code": "poslaju", "service": "Pos Laju", "price": strconv.FormatFloat(base, 'f', 2, 64)},
		{"provider_code": "poslaju_nextday", "service": "Pos Laju Next Day", "price": strconv.FormatFloat(base+4, 'f', 2, 64)},
	}
}

func (st *state) createShipment(f url.Values) Response {
	receiver := f.Get("receiver_postcode")
	if _, ok := Postcodes[receiver]; receiver != "" && !ok {
		return reject("Receiver Postcode [receiver_postcode] is invalid")
	}
	if r, ok := validateRoute(f.Get("sender_postcode"), receiver); !ok {
		return r
	}
	if f.Get("send_method") == "" {
		return reject("Missing [send_method] parameter/value")
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.seq++
	sh := &shipment{
		Key:              fmt.Sprintf("SP%08d", st.seq),
		SendMethod:       f.Get("send_method"),
		SendDate:         f.Get("send_date"),
		Type:             f.Get("type"),
		Size:             f.Get("size"),
		ProviderCode:     f.Get("provider_code"),
		SenderPostcode:   f.Get("sender_postcode"),
		ReceiverName:     f.Get("receiver_name"),
		ReceiverPostcode: f.Get("receiver_postcode"),
		Price:            prices(f.Get("declared_weight"))[0]["price"].(string),
		Status:           "pending",
	}
	st.cart = append(st.cart, sh)
	return success(sh)
}

func (st *state) cartItems() []shipment {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]shipment, 0, len(st.cart))
	for _, sh := range st.cart {
		out = append(out, *sh)
	}
	return out
}

func (st *state) checkout(keys []string) Response {
	if len(keys) == 0 {
		return reject("Missing [shipment_keys] parameter/value")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	picked := make([]*shipment, 0, len(keys))
	for _, k := range keys {
		idx := -1
		for i, sh := range st.cart {
			if sh.Key == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			return reject(fmt.Sprintf("Invalid [shipment_keys]. %q does not exist", k))
		}
		picked = append(picked, st.cart[idx])
	}

	out := make([]shipment, 0, len(picked))
	for _, sh := range picked {
		st.removeFromCart(sh.Key)
		sh.Status = "paid"
		sh.TrackingNo = "ER" + strings.TrimPrefix(sh.Key, "SP") + "MY"
		st.shipped = append(st.shipped, sh)
		out = append(out, *sh)
	}
	return success(map[string]any{"shipments": out})
}

func (st *state) removeFromCart(key string) {
	for i, sh := range st.cart {
		if sh.Key == key {
			st.cart = append(st.cart[:i], st.cart[i+1:]...)
			return
		}
	}
}

func (st *state) shipments(keys []string) []shipment {
	st.mu.Lock()
	defer st.mu.Unlock()
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := make([]shipment, 0, len(st.shipped))
	for _, sh := range st.shipped {
		if len(want) == 0 || want[sh.Key] {
			out = append(out, *sh)
		}
	}
	return out
}

func (st *state) trackingNumbers(keys []string) map[string]string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		for _, sh := range st.shipped {
			if sh.Key == k {
				out[k] = sh.TrackingNo
			}
		}
	}
	return out
}

// indexed collects key[0], key[1], ... in index order.
func indexed(f url.Values, key string) []string {
	type item struct {
		i int
		v string
	}
	var items []item
	prefix := key + "["
	for k, vs := range f {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, "]") {
			continue
		}
		i, err := strconv.Atoi(k[len(prefix) : len(k)-1])
		if err != nil || len(vs) == 0 {
			continue
		}
		items = append(items, item{i: i, v: vs[0]})
	}
	sort.Slice(items, func(a, b int) bool { return items[a].i < items[b].i })

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.v
	}
	return out
}

// indexedMaps collects key[0][field], key[1][field], ... in index order.
func indexedMaps(f url.Values, key string) []map[string]string {
	byIndex := map[int]map[string]string{}
	prefix := key + "["
	for k, vs := range f {
		if !strings.HasPrefix(k, prefix) || len(vs) == 0 {
			continue
		}
		rest := k[len(prefix):]
		end := strings.Index(rest, "]")
		if end < 0 {
			continue
		}
		i, err := strconv.Atoi(rest[:end])
		if err != nil {
			continue
		}
		field := strings.TrimSuffix(strings.TrimPrefix(rest[end+1:], "["), "]")
		if field == "" {
			continue
		}
		if byIndex[i] == nil {
			byIndex[i] = map[string]string{}
		}
		byIndex[i][field] = vs[0]
	}

	idx := make([]int, 0, len(byIndex))
	for i := range byIndex {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]map[string]string, len(idx))
	for n, i := range idx {
		out[n] = byIndex[i]
	}
	return out
}
