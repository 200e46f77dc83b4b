package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/internal/identity"
	"github.com/angelmondragon/excommerce-backend/internal/orders"
	"github.com/angelmondragon/excommerce-backend/internal/salesorders"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
)

type stubOrderService struct {
	placed       *orders.PlaceOrderResult
	detail       *orders.OrderDetail
	status       *orders.OrderStatus
	assignment   *orders.CustomerAssignment
	err          error
	lastID       identity.Identity
	lastCustomer *orders.CustomerInfo
	lastDelivery *orders.DeliveryInfo
	lastName     string
	calls        int
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, id identity.Identity, customer *orders.CustomerInfo, delivery *orders.DeliveryInfo) (*orders.PlaceOrderResult, error) {
	s.lastID, s.lastCustomer, s.lastDelivery = id, customer, delivery
	s.calls++
	return s.placed, s.err
}

func (s *stubOrderService) Get(ctx context.Context, name string) (*orders.OrderDetail, error) {
	s.lastName = name
	return s.detail, s.err
}

func (s *stubOrderService) Status(ctx context.Context, name string) (*orders.OrderStatus, error) {
	s.lastName = name
	return s.status, s.err
}

func (s *stubOrderService) AssignGuestCustomer(ctx context.Context, name string) (*orders.CustomerAssignment, error) {
	s.lastName = name
	return s.assignment, s.err
}

type stubSalesOrderService struct {
	result   *salesorders.PromoteResult
	status   *salesorders.Status
	err      error
	lastName string
}

func (s *stubSalesOrderService) Promote(ctx context.Context, draftName string) (*salesorders.PromoteResult, error) {
	s.lastName = draftName
	return s.result, s.err
}

func (s *stubSalesOrderService) Status(ctx context.Context, draftName string) (*salesorders.Status, error) {
	s.lastName = draftName
	return s.status, s.err
}

func (s *stubSalesOrderService) PromotePending(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

func TestOrdersPlace(t *testing.T) {
	svc := &stubOrderService{placed: &orders.PlaceOrderResult{
		Message: "Order created successfully",
		Order:   orders.OrderSummary{Name: "EXC-ORD-00001", Status: enums.OrderStatusSubmitted, GrandTotal: decimal.RequireFromString("25")},
	}}
	body := map[string]any{
		"customer_info": map[string]string{"name": "Ama Mensah", "email": "ama@example.com", "phone": "+233200000001"},
		"delivery_info": map[string]string{"address": "14 Oxford St", "notes": "Call on arrival"},
	}
	req := withClientIP(newRequest(t, http.MethodPost, "/api/v1/orders", body), "198.51.100.4")

	rec := serve(OrdersPlace(svc, testLogger()), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastID != identity.Resolve("198.51.100.4", "") {
		t.Fatalf("unexpected identity %+v", svc.lastID)
	}
	if svc.lastCustomer == nil || svc.lastCustomer.Email != "ama@example.com" {
		t.Fatalf("customer info not forwarded: %+v", svc.lastCustomer)
	}
	if svc.lastDelivery == nil || svc.lastDelivery.Notes != "Call on arrival" {
		t.Fatalf("delivery info not forwarded: %+v", svc.lastDelivery)
	}
	var result orders.PlaceOrderResult
	decodeData(t, rec, &result)
	if result.Order.Name != "EXC-ORD-00001" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestOrdersPlaceEmptyBodyReachesService(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeValidation, "Customer information is required")}
	rec := serve(OrdersPlace(svc, testLogger()), newRequest(t, http.MethodPost, "/api/v1/orders", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.calls != 1 || svc.lastCustomer != nil {
		t.Fatalf("expected service call with nil customer, calls=%d", svc.calls)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Message != "Customer information is required" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
}

func TestOrdersPlaceInvalidEmail(t *testing.T) {
	svc := &stubOrderService{}
	body := map[string]any{"customer_info": map[string]string{"email": "nope"}}
	rec := serve(OrdersPlace(svc, testLogger()), newRequest(t, http.MethodPost, "/api/v1/orders", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestOrdersPlaceEmptyCart(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")}
	body := map[string]any{
		"customer_info": map[string]string{"name": "Ama"},
		"delivery_info": map[string]string{"address": "Osu"},
	}
	rec := serve(OrdersPlace(svc, testLogger()), newRequest(t, http.MethodPost, "/api/v1/orders", body))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != string(pkgerrors.CodeEmptyCart) {
		t.Fatalf("unexpected error %+v", env.Error)
	}
}

func TestOrdersGetAndStatus(t *testing.T) {
	svc := &stubOrderService{
		detail: &orders.OrderDetail{OrderSummary: orders.OrderSummary{Name: "EXC-ORD-00002"}, Company: "Excommerce"},
		status: &orders.OrderStatus{Name: "EXC-ORD-00002", Status: enums.OrderStatusSubmitted},
	}

	req := withURLParams(newRequest(t, http.MethodGet, "/api/v1/orders/EXC-ORD-00002", nil), map[string]string{"orderId": "EXC-ORD-00002"})
	rec := serve(OrdersGet(svc, testLogger()), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var detail orders.OrderDetail
	decodeData(t, rec, &detail)
	if detail.Name != "EXC-ORD-00002" || detail.Company != "Excommerce" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	req = withURLParams(newRequest(t, http.MethodGet, "/api/v1/orders/EXC-ORD-00002/status", nil), map[string]string{"orderId": " EXC-ORD-00002 "})
	rec = serve(OrdersStatus(svc, testLogger()), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastName != "EXC-ORD-00002" {
		t.Fatalf("expected trimmed order id, got %q", svc.lastName)
	}
}

func TestOrdersGetNotFound(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")}
	req := withURLParams(newRequest(t, http.MethodGet, "/api/v1/orders/NOPE", nil), map[string]string{"orderId": "NOPE"})
	rec := serve(OrdersGet(svc, testLogger()), req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestOrdersAssignCustomer(t *testing.T) {
	cases := []struct {
		name       string
		created    bool
		wantStatus int
	}{
		{name: "created", created: true, wantStatus: http.StatusCreated},
		{name: "existing", created: false, wantStatus: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrderService{assignment: &orders.CustomerAssignment{Order: "EXC-ORD-00003", Customer: "CUST-00001", CustomerName: "Ama", Created: tc.created}}
			req := withURLParams(newRequest(t, http.MethodPost, "/api/v1/orders/EXC-ORD-00003/customer", nil), map[string]string{"orderId": "EXC-ORD-00003"})

			rec := serve(OrdersAssignCustomer(svc, testLogger()), req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
			var out orders.CustomerAssignment
			decodeData(t, rec, &out)
			if out.Customer != "CUST-00001" || out.Created != tc.created {
				t.Fatalf("unexpected assignment %+v", out)
			}
		})
	}
}

func TestSalesOrderCreate(t *testing.T) {
	cases := []struct {
		name       string
		result     *salesorders.PromoteResult
		wantStatus int
	}{
		{name: "created", result: &salesorders.PromoteResult{DraftOrder: "EXC-ORD-00004", SalesOrder: "SO-00001", Created: true}, wantStatus: http.StatusCreated},
		{name: "existing", result: &salesorders.PromoteResult{DraftOrder: "EXC-ORD-00004", SalesOrder: "SO-00001"}, wantStatus: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubSalesOrderService{result: tc.result}
			req := withURLParams(newRequest(t, http.MethodPost, "/api/v1/orders/EXC-ORD-00004/sales-order", nil), map[string]string{"orderId": "EXC-ORD-00004"})
			rec := serve(SalesOrderCreate(svc, testLogger()), req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
			var out salesorders.PromoteResult
			decodeData(t, rec, &out)
			if out.SalesOrder != "SO-00001" || out.DraftOrder != "EXC-ORD-00004" {
				t.Fatalf("unexpected result %+v", out)
			}
		})
	}
}

func TestSalesOrderCreateRequiresCustomer(t *testing.T) {
	svc := &stubSalesOrderService{err: pkgerrors.New(pkgerrors.CodeValidation, "Customer must be assigned before creating a sales order")}
	req := withURLParams(newRequest(t, http.MethodPost, "/api/v1/orders/EXC-ORD-00005/sales-order", nil), map[string]string{"orderId": "EXC-ORD-00005"})
	rec := serve(SalesOrderCreate(svc, testLogger()), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSalesOrderStatus(t *testing.T) {
	so := "SO-00002"
	svc := &stubSalesOrderService{status: &salesorders.Status{DraftOrder: "EXC-ORD-00006", HasSalesOrder: true, SalesOrder: &so}}
	req := withURLParams(newRequest(t, http.MethodGet, "/api/v1/orders/EXC-ORD-00006/sales-order", nil), map[string]string{"orderId": "EXC-ORD-00006"})
	rec := serve(SalesOrderStatus(svc, testLogger()), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var out salesorders.Status
	decodeData(t, rec, &out)
	if !out.HasSalesOrder || out.SalesOrder == nil || *out.SalesOrder != so {
		t.Fatalf("unexpected status %+v", out)
	}
}
