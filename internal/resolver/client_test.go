package resolver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"NotifyDispatcher/internal/domain"
	"NotifyDispatcher/internal/resolver"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchContact_Success(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1/contact", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"ada@x.com","device_token":"tok-1","preferences":{"email":true,"push":false}}`))
	})

	client := resolver.NewClient(srv.URL, srv.URL, time.Second)

	contact, err := client.FetchContact(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Equal(t, "u1", contact.UserID)
	assert.Equal(t, "ada@x.com", contact.Email)
	assert.Equal(t, "tok-1", contact.DeviceToken)
	assert.True(t, contact.Preferences.Email)
	assert.False(t, contact.Preferences.Push)
}

func TestFetchContact_Non2xx(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := resolver.NewClient(srv.URL, srv.URL, time.Second)

	contact, err := client.FetchContact(context.Background(), "missing")

	assert.Nil(t, contact)
	assert.ErrorIs(t, err, domain.ErrContactNotFound)
	assert.Equal(t, "Failed to get user contact info", err.Error())
}

func TestFetchContact_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := resolver.NewClient(srv.URL, srv.URL, time.Second)

	_, err := client.FetchContact(context.Background(), "u1")

	assert.ErrorIs(t, err, domain.ErrContactNotFound)
}

func TestFetchTemplate_Success(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/templates/welcome", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subject":"Hi {{name}}","body":"Welcome {{name}}!"}`))
	})

	client := resolver.NewClient(srv.URL, srv.URL, time.Second)

	tmpl, err := client.FetchTemplate(context.Background(), "welcome")

	assert.NoError(t, err)
	assert.Equal(t, "welcome", tmpl.TemplateCode)
	assert.Equal(t, "Hi {{name}}", tmpl.Subject)
	assert.Equal(t, "Welcome {{name}}!", tmpl.Body)
}

func TestFetchTemplate_OptionalSubject(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"body":"push only"}`))
	})

	client := resolver.NewClient(srv.URL, srv.URL, time.Second)

	tmpl, err := client.FetchTemplate(context.Background(), "push_tmpl")

	assert.NoError(t, err)
	assert.Equal(t, "", tmpl.Subject)
	assert.Equal(t, "push only", tmpl.Body)
}

func TestFetchTemplate_Non2xx(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"not_found", http.StatusNotFound},
		{"server_error", http.StatusInternalServerError},
		{"redirect_not_followed_as_success", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			client := resolver.NewClient(srv.URL, srv.URL, time.Second)

			tmpl, err := client.FetchTemplate(context.Background(), "welcome")

			assert.Nil(t, tmpl)
			assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
			assert.Equal(t, "Failed to get template", err.Error())
		})
	}
}

func TestFetchTemplate_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	client := resolver.NewClient(srv.URL, srv.URL, time.Second)

	_, err := client.FetchTemplate(context.Background(), "welcome")

	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}
