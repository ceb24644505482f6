package kit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mark("a"), mark("b"), mark("c"))(func(context.Context, any) (any, error) {
		order = append(order, "endpoint")
		return nil, nil
	})
	ep(context.Background(), nil)

	want := []string{"a", "b", "c", "endpoint"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestHTTPRequestID(t *testing.T) {
	var seen string
	h := HTTPRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a UUID", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("incoming id not reused: %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "<script>" {
		t.Error("malformed incoming id was kept")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var got string
	ep := RequestID()(func(ctx context.Context, _ any) (any, error) {
		got = GetRequestID(ctx)
		return nil, nil
	})

	ep(context.Background(), nil)
	if got == "" {
		t.Fatal("no request id assigned")
	}
	ep(WithRequestID(context.Background(), "fixed"), nil)
	if got != "fixed" {
		t.Errorf("existing id replaced: %q", got)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	ep := Logging(nil, "parse")(func(context.Context, any) (any, error) {
		return "resp", boom
	})
	resp, err := ep(WithTransport(context.Background(), "cli"), nil)
	if resp != "resp" || !errors.Is(err, boom) {
		t.Errorf("got %v, %v", resp, err)
	}
}

func TestGetTransportDefault(t *testing.T) {
	if got := GetTransport(context.Background()); got != "http" {
		t.Errorf("default transport = %q, want http", got)
	}
}

func TestTransportConstants(t *testing.T) {
	ctx := WithTransport(context.Background(), TransportMCPQUIC)
	if got := GetTransport(ctx); got != TransportMCPQUIC {
		t.Errorf("transport = %q, want %q", got, TransportMCPQUIC)
	}
	if got := GetTransport(WithTransport(context.Background(), "")); got != TransportHTTP {
		t.Errorf("empty transport = %q, want %q", got, TransportHTTP)
	}
}

func TestMarshalJSON_NoHTMLEscape(t *testing.T) {
	got, err := MarshalJSON(map[string][]string{"house": {"Marks & Spencer <Oxford St>"}})
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"house":["Marks & Spencer <Oxford St>"]}`
	if got != want {
		t.Errorf("MarshalJSON = %s, want %s", got, want)
	}
}
