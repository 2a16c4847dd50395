package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medichannel/medichannel/internal/platform/auth"
)

func newHandlerFixture() (*Handler, *fixture) {
	f := newFixture()
	return NewHandler(f.svc), f
}

func doJSON(h echo.HandlerFunc, method, target, body string, actorID, role string, pathParams map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	ctx := req.Context()
	ctx = context.WithValue(ctx, auth.ActorIDKey, actorID)
	ctx = context.WithValue(ctx, auth.ActorRoleKey, role)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	names := make([]string, 0, len(pathParams))
	values := make([]string, 0, len(pathParams))
	for k, v := range pathParams {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body %q: %v", rec.Body.String(), err)
	}
	if body.Message == "" {
		t.Error("error response missing human-readable message")
	}
	return body.Error
}

func TestHandlerBookAndConflict(t *testing.T) {
	h, f := newHandlerFixture()
	doctor := f.dir.addDoctor(true, 100)
	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	body := `{"doctor_id":"` + doctor.ID.String() + `","date":"` + date + `","time":"10:00",` +
		`"patient":{"name":"Jane Mensah","email":"jane@example.com"}}`

	rec := doJSON(h.Book, http.MethodPost, "/api/v1/appointments", body, uuid.New().String(), auth.RolePatient, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created Detail
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("bad booking response: %v", err)
	}
	if created.BookingReference == "" || created.Status != StatusScheduled {
		t.Errorf("created = %+v", created)
	}

	rec = doJSON(h.Book, http.MethodPost, "/api/v1/appointments", body, uuid.New().String(), auth.RolePatient, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second booking status = %d, want 409", rec.Code)
	}
	if kind := errorKind(t, rec); kind != "conflict" {
		t.Errorf("error kind = %q, want conflict", kind)
	}
}

func TestHandlerErrorKinds(t *testing.T) {
	h, f := newHandlerFixture()
	doctor := f.dir.addDoctor(true, 100)
	booked := book(t, f, doctor.ID)
	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	t.Run("validation on past date", func(t *testing.T) {
		body := `{"doctor_id":"` + doctor.ID.String() + `","date":"2001-01-01","time":"10:00",` +
			`"patient":{"name":"J","email":"j@example.com"}}`
		rec := doJSON(h.Book, http.MethodPost, "/", body, uuid.New().String(), auth.RolePatient, nil)
		if rec.Code != http.StatusBadRequest || errorKind(t, rec) != "validation" {
			t.Errorf("status=%d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("not_found on unknown doctor", func(t *testing.T) {
		body := `{"doctor_id":"` + uuid.New().String() + `","date":"` + date + `","time":"10:00",` +
			`"patient":{"name":"J","email":"j@example.com"}}`
		rec := doJSON(h.Book, http.MethodPost, "/", body, uuid.New().String(), auth.RolePatient, nil)
		if rec.Code != http.StatusNotFound || errorKind(t, rec) != "not_found" {
			t.Errorf("status=%d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid_transition kind", func(t *testing.T) {
		rec := doJSON(h.Transition, http.MethodPost, "/", `{"target":"completed"}`,
			booked.PatientID.String(), auth.RolePatient, map[string]string{"id": booked.ID.String()})
		if rec.Code != http.StatusBadRequest || errorKind(t, rec) != "invalid_transition" {
			t.Errorf("status=%d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("not_found on unknown appointment", func(t *testing.T) {
		rec := doJSON(h.Transition, http.MethodPost, "/", `{"target":"cancelled"}`,
			"admin-1", auth.RoleAdmin, map[string]string{"id": uuid.New().String()})
		if rec.Code != http.StatusNotFound || errorKind(t, rec) != "not_found" {
			t.Errorf("status=%d body=%s", rec.Code, rec.Body.String())
		}
	})
}

func TestHandlerAvailableSlots(t *testing.T) {
	h, f := newHandlerFixture()
	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	doctor := f.dir.addDoctor(true, 100)
	f.dir.addWindow(doctor.ID, day.Weekday(), "09:00", "10:00", false)

	rec := doJSON(h.AvailableSlots, http.MethodGet, "/?date=2030-01-07", "",
		"someone", auth.RolePatient, map[string]string{"id": doctor.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(body.Slots) != 2 {
		t.Errorf("slots = %v, want two half-hour slots", body.Slots)
	}
}

func TestHandlerTransitionSuccess(t *testing.T) {
	h, f := newHandlerFixture()
	doctor := f.dir.addDoctor(true, 100)
	booked := book(t, f, doctor.ID)

	rec := doJSON(h.Transition, http.MethodPost, "/", `{"target":"confirmed"}`,
		doctor.ID.String(), auth.RoleDoctor, map[string]string{"id": booked.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var detail Detail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if detail.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", detail.Status)
	}
}
