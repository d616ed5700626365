package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stockline/internal/alert"
	"stockline/internal/config"
	"stockline/internal/dispatch"
	"stockline/internal/line"
	logx "stockline/pkg/logx"
)

const testSecret = "channel-secret"

type push struct {
	to   string
	text string
}

type fakePusher struct {
	mu    sync.Mutex
	calls []push
}

func (f *fakePusher) Push(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, push{to: to, text: text})
	return nil
}

func (f *fakePusher) pushes() []push {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push(nil), f.calls...)
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestRouter(t *testing.T, recipients ...config.Recipient) (http.Handler, *fakePusher, alert.Formatter) {
	t.Helper()
	fp := &fakePusher{}
	f := alert.NewFormatter(alert.LocaleEnglish, time.UTC)
	r := NewRouter(Deps{
		Webhook:      line.NewWebhook(line.NewVerifier(testSecret), nil, logx.Nop()),
		Formatter:    f,
		Dispatcher:   dispatch.New(fp, recipients, logx.Nop()),
		Now:          func() time.Time { return fixedNow },
		MaxBodyBytes: 1 << 10,
	})
	return r, fp, f
}

func do(h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestPickupAlertFansOutToEveryRecipient(t *testing.T) {
	h, fp, f := newTestRouter(t, "U1", "U2")

	body := `{"employee":"Somchai","stock":{"bolt":5,"nut":10}}`
	rec := do(h, http.MethodPost, "/alert-pickup-part", body, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if got := rec.Body.String(); got != `{"status":"success"}` {
		t.Fatalf("body = %s", got)
	}

	calls := fp.pushes()
	if len(calls) != 2 || calls[0].to != "U1" || calls[1].to != "U2" {
		t.Fatalf("calls = %+v", calls)
	}
	p, err := alert.Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := f.Format(alert.Pickup, p, fixedNow)
	for _, c := range calls {
		if c.text != want {
			t.Fatalf("text = %q, want %q", c.text, want)
		}
	}
	for _, frag := range []string{"🔴", "- bolt in quantity 5 units", "- nut in quantity 10 units", "2024-03-09 14:05:07", "responsible: Somchai"} {
		if !strings.Contains(want, frag) {
			t.Fatalf("message missing %q:\n%s", frag, want)
		}
	}
	if strings.Index(want, "bolt") > strings.Index(want, "nut") {
		t.Fatal("items out of payload order")
	}
}

func TestAddAlertUsesAdditionWording(t *testing.T) {
	h, fp, _ := newTestRouter(t, "U1")
	rec := do(h, http.MethodPost, "/alert-add-part", `{"employee":"Nok","stock":{"gear":2}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	calls := fp.pushes()
	if len(calls) != 1 {
		t.Fatalf("calls = %+v", calls)
	}
	if !strings.Contains(calls[0].text, "🟢") || !strings.Contains(calls[0].text, "performed by: Nok") {
		t.Fatalf("text = %q", calls[0].text)
	}
}

func TestAlertRejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		path string
		body string
	}{
		{"empty body", "/alert-add-part", ""},
		{"not json", "/alert-pickup-part", "employee=x"},
		{"missing employee", "/alert-pickup-part", `{"stock":{"a":1}}`},
		{"missing stock", "/alert-add-part", `{"employee":"x"}`},
		{"blank employee", "/alert-add-part", `{"employee":"  ","stock":{}}`},
		{"fractional quantity", "/alert-pickup-part", `{"employee":"x","stock":{"a":1.5}}`},
		{"negative quantity", "/alert-pickup-part", `{"employee":"x","stock":{"a":-1}}`},
		{"string quantity", "/alert-add-part", `{"employee":"x","stock":{"a":"1"}}`},
		{"keys in other case", "/alert-pickup-part", `{"EMPLOYEE":"Somchai","Stock":{"bolt":5}}`},
		{"trailing data", "/alert-add-part", `{"employee":"A","stock":{}} garbage`},
		{"too large", "/alert-add-part", `{"employee":"` + strings.Repeat("x", 2048) + `","stock":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, fp, _ := newTestRouter(t, "U1", "U2")
			rec := do(h, http.MethodPost, tc.path, tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Body.String(); got != `{"error":"Invalid data"}` {
				t.Fatalf("body = %s", got)
			}
			if n := len(fp.pushes()); n != 0 {
				t.Fatalf("pushes = %d, want 0", n)
			}
		})
	}
}

func TestAlertAcceptsEmptyStock(t *testing.T) {
	h, fp, _ := newTestRouter(t, "U1")
	rec := do(h, http.MethodPost, "/alert-add-part", `{"employee":"x","stock":{}}`, nil)
	if rec.Code != http.StatusOK || len(fp.pushes()) != 1 {
		t.Fatalf("status = %d pushes = %d", rec.Code, len(fp.pushes()))
	}
}

func TestAlertRepeatedStockNameRendersOneLine(t *testing.T) {
	h, fp, _ := newTestRouter(t, "U1")
	rec := do(h, http.MethodPost, "/alert-pickup-part", `{"employee":"A","stock":{"bolt":1,"bolt":2}}`, nil)
	if rec.Code != http.StatusOK || len(fp.pushes()) != 1 {
		t.Fatalf("status = %d pushes = %d", rec.Code, len(fp.pushes()))
	}
	text := fp.pushes()[0].text
	if strings.Count(text, "- bolt in quantity") != 1 || !strings.Contains(text, "- bolt in quantity 2 units") {
		t.Fatalf("text = %q", text)
	}
}

func TestCallbackSignature(t *testing.T) {
	const body = `{"destination":"Ubot","events":[]}`
	cases := []struct {
		name   string
		body   string
		sig    string
		status int
		want   string
	}{
		{"valid", body, sign(body), http.StatusOK, "OK"},
		{"missing header", body, "", http.StatusBadRequest, invalidSignatureText},
		{"wrong signature", body, sign(body + " "), http.StatusBadRequest, invalidSignatureText},
		{"signed garbage", "not json", sign("not json"), http.StatusBadRequest, invalidRequestText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, fp, _ := newTestRouter(t, "U1")
			hdr := map[string]string{}
			if tc.sig != "" {
				hdr[line.SignatureHeader] = tc.sig
			}
			rec := do(h, http.MethodPost, "/callback", tc.body, hdr)
			if rec.Code != tc.status || rec.Body.String() != tc.want {
				t.Fatalf("got %d %q, want %d %q", rec.Code, rec.Body.String(), tc.status, tc.want)
			}
			if len(fp.pushes()) != 0 {
				t.Fatal("callback must never push")
			}
		})
	}
}

func TestHealthzAndMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestRouter(t, "U1")
	if rec := do(h, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodGet, "/alert-add-part", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET alert = %d", rec.Code)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	var buf bytes.Buffer
	r := NewRouter(Deps{
		Webhook: panicWebhook{},
		Log:     logx.NewWriter(&buf, "debug"),
	})
	rec := do(r, http.MethodPost, "/callback", "{}", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "handler panicked") {
		t.Fatalf("log = %s", buf.String())
	}
}

type panicWebhook struct{}

func (panicWebhook) Handle(context.Context, []byte, string) error { panic("boom") }

func TestServiceServesAndStops(t *testing.T) {
	h, fp, _ := newTestRouter(t, "U1")
	svc := New(Config{Addr: "127.0.0.1:0", ReadTimeout: time.Second}, h, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := svc.Addr()
	if addr == "" {
		t.Fatal("no listen address")
	}

	resp, err := http.Post("http://"+addr+"/alert-pickup-part", "application/json",
		strings.NewReader(`{"employee":"x","stock":{"a":1}}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != `{"status":"success"}` {
		t.Fatalf("response = %d %s", resp.StatusCode, b)
	}
	if len(fp.pushes()) != 1 {
		t.Fatalf("pushes = %d", len(fp.pushes()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := http.Get("http://" + addr + "/healthz"); err == nil {
		t.Fatal("server still reachable after Stop")
	}
}

func TestServiceStartFailsOnBadAddr(t *testing.T) {
	svc := New(Config{Addr: "256.0.0.1:bad"}, http.NotFoundHandler(), logx.Nop())
	if err := svc.Start(context.Background()); err == nil {
		_ = svc.Stop(context.Background())
		t.Fatal("expected listen error")
	}
}
