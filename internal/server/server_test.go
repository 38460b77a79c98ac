// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/laneimport/internal/batch"
	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/report"
	"github.com/fleetops/laneimport/internal/server"
	"github.com/fleetops/laneimport/internal/wizard"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	store  *batch.MemoryStore
	http   *httptest.Server
	client *importapi.Client
}

func newFixture(t *testing.T, opts server.Options) *fixture {
	t.Helper()
	store := batch.NewMemoryStore()
	srv := server.New(nil, batch.NewProcessor(store, nil, nil), nil, opts, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	token := opts.Token
	if token == "" {
		token = "test-token"
	}
	return &fixture{
		store:  store,
		http:   ts,
		client: importapi.NewClient(ts.URL, importapi.StaticToken(token), 5*time.Second, nil),
	}
}

const lanesCSV = "Lane,Dest,Truck,KM\nL1,Pune,20ft,150\nL2,,20ft,90\nL3,Goa,32ft,600\n"

func TestServer_Healthz(t *testing.T) {
	f := newFixture(t, server.Options{})
	resp, err := http.Get(f.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Preview(t *testing.T) {
	f := newFixture(t, server.Options{SampleSize: 2})
	got, err := f.client.Preview(context.Background(), importapi.File{Name: "lanes.csv", Data: []byte(lanesCSV)})
	require.NoError(t, err)

	assert.Equal(t, []string{"Lane", "Dest", "Truck", "KM"}, got.Columns)
	assert.Equal(t, 3, got.TotalRows)
	require.Len(t, got.Preview, 2)
	assert.Equal(t, "L1", got.Preview[0]["Lane"])
	assert.Nil(t, got.Preview[1]["Dest"])
}

func TestServer_PreviewUnreadableFile(t *testing.T) {
	f := newFixture(t, server.Options{})
	_, err := f.client.Preview(context.Background(), importapi.File{Name: "broken.xlsx", Data: []byte("PK\x03\x04not a workbook")})

	var rejected *importapi.RequestRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, importapi.ErrorCodeUnreadableFile, rejected.Code)
}

func TestServer_EndToEndImport(t *testing.T) {
	f := newFixture(t, server.Options{})
	exec := importapi.NewExecutor(f.client, nil, nil)

	res, err := exec.Execute(context.Background(), importapi.ImportRequest{
		File:      importapi.File{Name: "lanes.csv", Data: []byte(lanesCSV)},
		ClientID:  "client-9",
		Mapping:   fields.Mapping{"laneName": "Lane", "destination": "Dest", "truckSize": "Truck", "distanceKm": "KM"},
		Fallbacks: map[string]string{"origin": "Client HQ"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)

	lanes := f.store.Lanes("client-9")
	require.Len(t, lanes, 2)
	assert.Equal(t, "Client HQ", lanes[0].Origin)
	assert.Equal(t, "600", lanes[1].DistanceKm.Decimal.String())
}

func TestServer_WizardAgainstServer(t *testing.T) {
	f := newFixture(t, server.Options{})
	w, err := wizard.New(f.client, importapi.NewExecutor(f.client, nil, nil), wizard.Options{ClientID: "client-1"})
	require.NoError(t, err)

	require.NoError(t, w.Upload(context.Background(), importapi.File{Name: "lanes.csv", Data: []byte(lanesCSV)}))
	require.True(t, w.CanImport())

	res, err := w.Import(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wizard.StepDone, w.Step())
	assert.Equal(t, report.StatusPartial, report.Summarize(*res).Status)
}

func TestServer_ImportMissingRequiredMapping(t *testing.T) {
	f := newFixture(t, server.Options{})
	_, err := f.client.Import(context.Background(), importapi.ImportRequest{
		File:     importapi.File{Name: "lanes.csv", Data: []byte(lanesCSV)},
		ClientID: "c1",
		Mapping:  fields.Mapping{"destination": "Dest"},
	})

	var rejected *importapi.RequestRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, importapi.ErrorCodeMissingMapping, rejected.Code)
	assert.Empty(t, f.store.Lanes("c1"))
}

func TestServer_ImportUnknownColumn(t *testing.T) {
	f := newFixture(t, server.Options{})
	_, err := f.client.Import(context.Background(), importapi.ImportRequest{
		File:     importapi.File{Name: "lanes.csv", Data: []byte(lanesCSV)},
		ClientID: "c1",
		Mapping:  fields.Mapping{"destination": "Destination", "truckSize": "Truck"},
	})

	var rejected *importapi.RequestRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, importapi.ErrorCodeInvalidMapping, rejected.Code)
}

func TestServer_ImportNoDataRows(t *testing.T) {
	f := newFixture(t, server.Options{})
	_, err := f.client.Import(context.Background(), importapi.ImportRequest{
		File:     importapi.File{Name: "lanes.csv", Data: []byte("Dest,Truck\n")},
		ClientID: "c1",
		Mapping:  fields.Mapping{"destination": "Dest", "truckSize": "Truck"},
	})

	var rejected *importapi.RequestRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, importapi.ErrorCodeValidation, rejected.Code)
}

func multipartBody(t *testing.T, formFields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range formFields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withFile {
		part, err := w.CreateFormFile("file", "lanes.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(lanesCSV))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestServer_RequestValidation(t *testing.T) {
	srv := server.New(nil, batch.NewProcessor(batch.NewMemoryStore(), nil, nil), nil, server.Options{Token: "s3cret"}, nil)

	tests := []struct {
		name       string
		auth       string
		fields     map[string]string
		withFile   bool
		wantStatus int
		wantCode   string
	}{
		{name: "missing bearer", withFile: true, wantStatus: http.StatusUnauthorized, wantCode: importapi.ErrorCodeUnauthorized},
		{name: "wrong bearer", auth: "Bearer nope", withFile: true, wantStatus: http.StatusUnauthorized, wantCode: importapi.ErrorCodeUnauthorized},
		{name: "wrong bearer same length", auth: "Bearer s3creT", withFile: true, wantStatus: http.StatusUnauthorized, wantCode: importapi.ErrorCodeUnauthorized},
		{name: "bearer prefix of secret", auth: "Bearer s3c", withFile: true, wantStatus: http.StatusUnauthorized, wantCode: importapi.ErrorCodeUnauthorized},
		{name: "missing file", auth: "Bearer s3cret", fields: map[string]string{"clientId": "c1", "mapping": "{}"}, wantStatus: http.StatusBadRequest, wantCode: importapi.ErrorCodeValidation},
		{name: "bad mapping json", auth: "Bearer s3cret", fields: map[string]string{"clientId": "c1", "mapping": "{not json"}, withFile: true, wantStatus: http.StatusBadRequest, wantCode: importapi.ErrorCodeInvalidMapping},
		{name: "missing client", auth: "Bearer s3cret", fields: map[string]string{"mapping": `{"destination":"Dest","truckSize":"Truck"}`}, withFile: true, wantStatus: http.StatusBadRequest, wantCode: importapi.ErrorCodeValidation},
		{name: "accepted", auth: "Bearer s3cret", fields: map[string]string{"clientId": "c1", "mapping": `{"destination":"Dest","truckSize":"Truck"}`}, withFile: true, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.fields, tt.withFile)
			req := httptest.NewRequest(http.MethodPost, importapi.ImportPath, body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("X-Request-ID", "req-42")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
			if tt.wantCode == "" {
				var res importapi.ImportResult
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.Equal(t, 3, res.Total)
				return
			}
			var apiErr importapi.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestServer_Run(t *testing.T) {
	srv := server.New(nil, batch.NewProcessor(batch.NewMemoryStore(), nil, nil), nil, server.Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
