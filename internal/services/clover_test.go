package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/server"
	"github.com/desertthunder/butter/internal/shared"
	tu "github.com/desertthunder/butter/internal/testing"
)

// newGateway runs the real gateway in front of a fake Clover API.
func newGateway(t *testing.T, clover http.HandlerFunc, envelope bool) (*CloverService, *tu.Upstream) {
	t.Helper()
	upstream := tu.NewUpstream(t, clover)

	cfg := shared.DefaultConfig()
	cfg.Clover.APIBaseURL = upstream.URL + "/v3"
	cfg.Proxy.Envelope = envelope
	app := server.NewApp(server.AppOpts{Config: cfg, Logger: shared.NewLogger(io.Discard)})

	gw := httptest.NewServer(app.Handler())
	t.Cleanup(gw.Close)

	return NewCloverService(NewAPIService(gw.URL, nil), ""), upstream
}

func TestCloverService(t *testing.T) {
	for _, envelope := range []bool{true, false} {
		name := "raw"
		if envelope {
			name = "enveloped"
		}

		t.Run(name, func(t *testing.T) {
			t.Run("Items", func(t *testing.T) {
				svc, upstream := newGateway(t, tu.JSONResponder(http.StatusOK,
					`{"elements":[{"id":"I1","name":"Burger","price":1299,"sku":"B-1"}]}`), envelope)

				items, err := svc.Items(context.Background(), testSession, ItemQuery{Limit: 5})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(items) != 1 || items[0].Name != "Burger" || items[0].Price != 1299 {
					t.Errorf("unexpected items %+v", items)
				}

				sent := upstream.Requests()[0]
				if sent.Path != "/v3/merchants/M1/items" || sent.RawQuery != "limit=5" {
					t.Errorf("unexpected upstream request %s?%s", sent.Path, sent.RawQuery)
				}
			})

			t.Run("CurrentMerchant", func(t *testing.T) {
				svc, _ := newGateway(t, tu.JSONResponder(http.StatusOK, `{"id":"M1","name":"Butter Cafe"}`), envelope)

				m, err := svc.CurrentMerchant(context.Background(), models.Session{AccessToken: "tok_1"})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if m.ID != "M1" || m.Name != "Butter Cafe" {
					t.Errorf("unexpected merchant %+v", m)
				}
			})
		})
	}

	t.Run("ResolveMerchant only looks up when missing", func(t *testing.T) {
		svc, upstream := newGateway(t, tu.JSONResponder(http.StatusOK, `{"id":"M7","name":"Other"}`), true)

		sess, err := svc.ResolveMerchant(context.Background(), testSession)
		if err != nil || sess.MerchantID != "M1" {
			t.Fatalf("expected existing merchant M1, got %q (%v)", sess.MerchantID, err)
		}
		if upstream.Calls() != 0 {
			t.Errorf("expected no lookup, got %d calls", upstream.Calls())
		}

		sess, err = svc.ResolveMerchant(context.Background(), models.Session{AccessToken: "tok_1"})
		if err != nil || sess.MerchantID != "M7" {
			t.Fatalf("expected resolved merchant M7, got %q (%v)", sess.MerchantID, err)
		}
		if got := upstream.Requests()[0].Path; got != "/v3/merchants/current" {
			t.Errorf("expected current merchant lookup, got %s", got)
		}
	})

	t.Run("expired token surfaces as ErrTokenExpired", func(t *testing.T) {
		svc, _ := newGateway(t, tu.JSONResponder(http.StatusUnauthorized, `{"message":"401 Unauthorized"}`), true)

		_, err := svc.Items(context.Background(), testSession, ItemQuery{})
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("CreateItem validates and posts the payload", func(t *testing.T) {
		svc, upstream := newGateway(t, tu.JSONResponder(http.StatusOK, `{"id":"I2","name":"Fries","price":399,"sku":"F-1"}`), true)

		if _, err := svc.CreateItem(context.Background(), testSession, models.ItemInput{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
		}
		if upstream.Calls() != 0 {
			t.Fatalf("invalid input should not be sent")
		}

		price := int64(399)
		item, err := svc.CreateItem(context.Background(), testSession, models.ItemInput{Name: "Fries", Price: &price, SKU: "F-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.ID != "I2" {
			t.Errorf("unexpected item %+v", item)
		}

		sent := upstream.Requests()[0]
		if sent.Method != http.MethodPost || string(sent.Body) != `{"name":"Fries","price":399,"sku":"F-1"}` {
			t.Errorf("unexpected create request %s %s", sent.Method, sent.Body)
		}
	})

	t.Run("UpdateItem and DeleteItem address the item", func(t *testing.T) {
		svc, upstream := newGateway(t, tu.JSONResponder(http.StatusOK, `{"id":"I1","name":"Burger","price":1399}`), true)

		price := int64(1399)
		if _, err := svc.UpdateItem(context.Background(), testSession, "I1", models.ItemInput{Price: &price}); err != nil {
			t.Fatalf("unexpected update error: %v", err)
		}
		if err := svc.DeleteItem(context.Background(), testSession, "I1"); err != nil {
			t.Fatalf("unexpected delete error: %v", err)
		}

		reqs := upstream.Requests()
		if string(reqs[0].Body) != `{"price":1399}` {
			t.Errorf("update should only send changed fields, got %s", reqs[0].Body)
		}
		if reqs[1].Method != http.MethodDelete || reqs[1].Path != "/v3/merchants/M1/items/I1" {
			t.Errorf("unexpected delete %s %s", reqs[1].Method, reqs[1].Path)
		}
	})

	t.Run("missing item maps to ErrItemNotFound", func(t *testing.T) {
		svc, _ := newGateway(t, tu.JSONResponder(http.StatusNotFound, `{"message":"Not Found"}`), true)

		err := svc.DeleteItem(context.Background(), testSession, "nope")
		if !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("Orders builds creation time filters", func(t *testing.T) {
		svc, upstream := newGateway(t, tu.JSONResponder(http.StatusOK,
			`{"elements":[{"id":"O1","total":2598,"state":"locked","createdTime":1700000000000}]}`), true)

		from := time.UnixMilli(1700000000000)
		to := time.UnixMilli(1700086400000)
		orders, err := svc.Orders(context.Background(), testSession, OrderQuery{From: from, To: to, Limit: 10, Offset: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(orders) != 1 || orders[0].Total != 2598 || !orders[0].Created().Equal(from) {
			t.Errorf("unexpected orders %+v", orders)
		}

		q, err := url.ParseQuery(upstream.Requests()[0].RawQuery)
		if err != nil {
			t.Fatalf("bad query: %v", err)
		}
		filters := strings.Join(q["filter"], ",")
		if filters != "createdTime>=1700000000000,createdTime<=1700086400000" || q.Get("limit") != "10" || q.Get("offset") != "20" {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("unresolved merchant is rejected locally", func(t *testing.T) {
		svc, upstream := newGateway(t, tu.JSONResponder(http.StatusOK, `{}`), true)

		_, err := svc.Items(context.Background(), models.Session{AccessToken: "tok_1"}, ItemQuery{})
		if !errors.Is(err, shared.ErrMerchantUnresolved) {
			t.Errorf("expected ErrMerchantUnresolved, got %v", err)
		}
		if upstream.Calls() != 0 {
			t.Errorf("expected no upstream call, got %d", upstream.Calls())
		}
	})
}
