package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/techdoc/internal/auth"
	"github.com/mmynk/techdoc/internal/middleware"
	"github.com/mmynk/techdoc/internal/service"
)

const (
	whoAmIProcedure = "/test.v1.TestService/WhoAmI"
	publicProcedure = "/test.v1.TestService/Ping"
)

type whoAmI struct {
	Username string `json:"username"`
}

func echoUsername(ctx context.Context, _ *connect.Request[service.Empty]) (*connect.Response[whoAmI], error) {
	return connect.NewResponse(&whoAmI{Username: middleware.GetUsername(ctx)}), nil
}

func newServer(t *testing.T, jwtManager *auth.JWTManager) string {
	t.Helper()
	opts := []connect.HandlerOption{
		connect.WithCodec(service.JSONCodec{}),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager, publicProcedure), middleware.LoggingInterceptor()),
	}
	mux := http.NewServeMux()
	mux.Handle(whoAmIProcedure, connect.NewUnaryHandler(whoAmIProcedure, echoUsername, opts...))
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, echoUsername, opts...))

	server := httptest.NewServer(middleware.Logging(middleware.CORS(mux)))
	t.Cleanup(server.Close)
	return server.URL
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("0123456789abcdef", time.Hour)
	url := newServer(t, jwtManager)
	ctx := context.Background()

	token, _, err := jwtManager.Generate(&auth.Principal{Username: "tech"})
	require.NoError(t, err)
	other, _, err := auth.NewJWTManager("another-secret-key", time.Hour).Generate(&auth.Principal{Username: "tech"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		procedure string
		header    string
		wantCode  connect.Code
		wantUser  string
	}{
		{name: "valid token", procedure: whoAmIProcedure, header: "Bearer " + token, wantUser: "tech"},
		{name: "missing header", procedure: whoAmIProcedure, wantCode: connect.CodeUnauthenticated},
		{name: "not a bearer token", procedure: whoAmIProcedure, header: "Basic dGVjaDpwdw==", wantCode: connect.CodeUnauthenticated},
		{name: "foreign signature", procedure: whoAmIProcedure, header: "Bearer " + other, wantCode: connect.CodeUnauthenticated},
		{name: "public procedure", procedure: publicProcedure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := service.NewClient[service.Empty, whoAmI](http.DefaultClient, url, tt.procedure)
			req := connect.NewRequest(&service.Empty{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			res, err := client.CallUnary(ctx, req)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, res.Msg.Username)
		})
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/techdoc.v1.JobService/ListJobs", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "preflight is answered without reaching the handler")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/techdoc.v1.JobService/ListJobs", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
