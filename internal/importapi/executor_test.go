// SPDX-License-Identifier: Apache-2.0

package importapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
)

type mockImporter struct {
	ImportFunc func(ctx context.Context, req importapi.ImportRequest) (*importapi.ImportResult, error)
	calls      []importapi.ImportRequest
}

func (m *mockImporter) Import(ctx context.Context, req importapi.ImportRequest) (*importapi.ImportResult, error) {
	m.calls = append(m.calls, req)
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, req)
	}
	return &importapi.ImportResult{}, nil
}

func validRequest() importapi.ImportRequest {
	return importapi.ImportRequest{
		File:     importapi.File{Name: "lanes.csv", Data: []byte("Dest,Truck\nPune,20ft\n")},
		ClientID: "client-1",
		Mapping:  fields.Mapping{"destination": "Dest", "truckSize": "Truck"},
	}
}

func TestExecutor_IncompleteMappingNeverCallsBackend(t *testing.T) {
	m := &mockImporter{}
	exec := importapi.NewExecutor(m, nil, nil)

	req := validRequest()
	req.Mapping = fields.Mapping{"laneName": "Name Only", "truckSize": "  "}
	_, err := exec.Execute(context.Background(), req)

	var incomplete *importapi.IncompleteMappingError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"destination", "truckSize"}, incomplete.Missing)
	assert.Empty(t, m.calls)
}

func TestExecutor_LocalPreconditions(t *testing.T) {
	m := &mockImporter{}
	exec := importapi.NewExecutor(m, nil, nil)

	req := validRequest()
	req.ClientID = " "
	_, err := exec.Execute(context.Background(), req)
	require.Error(t, err)

	req = validRequest()
	req.File.Data = nil
	_, err = exec.Execute(context.Background(), req)
	require.Error(t, err)

	assert.Empty(t, m.calls)
}

func TestExecutor_ShapesRequest(t *testing.T) {
	m := &mockImporter{}
	exec := importapi.NewExecutor(m, nil, nil)

	req := validRequest()
	req.Mapping["origin"] = "Pickup"
	req.Mapping["rate"] = ""
	req.Fallbacks = map[string]string{
		"origin":   "Client HQ",
		"rate":     "1000",
		"notes":    " ",
		"mystery":  "x",
		"laneName": "Default lane",
	}

	_, err := exec.Execute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.calls, 1)

	sent := m.calls[0]
	assert.Equal(t, fields.Mapping{"destination": "Dest", "truckSize": "Truck", "origin": "Pickup"}, sent.Mapping)
	assert.Equal(t, map[string]string{"rate": "1000", "laneName": "Default lane"}, sent.Fallbacks)
	for key := range sent.Fallbacks {
		assert.False(t, sent.Mapping.Mapped(key), "field %s both mapped and defaulted", key)
	}
	assert.Equal(t, req.File, sent.File)
}

func TestExecutor_RelaysPartialFailure(t *testing.T) {
	want := &importapi.ImportResult{
		Total: 100, Successful: 97, Failed: 3,
		Errors: []importapi.RowError{{Row: 5, Error: "missing destination"}, {Row: 9, Error: "bad rate"}, {Row: 40, Error: "bad km"}},
	}
	m := &mockImporter{ImportFunc: func(context.Context, importapi.ImportRequest) (*importapi.ImportResult, error) {
		return want, nil
	}}

	got, err := importapi.NewExecutor(m, nil, nil).Execute(context.Background(), validRequest())
	require.NoError(t, err, "row failures are data, not errors")
	assert.Equal(t, want, got)
}

func TestExecutor_RelaysInconsistentResult(t *testing.T) {
	m := &mockImporter{ImportFunc: func(context.Context, importapi.ImportRequest) (*importapi.ImportResult, error) {
		return &importapi.ImportResult{Total: 10, Successful: 3, Failed: 3}, nil
	}}
	got, err := importapi.NewExecutor(m, nil, nil).Execute(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 10, got.Total)
}

func TestExecutor_PropagatesWholeRequestFailure(t *testing.T) {
	boom := &importapi.TransportError{Op: "import", Err: errors.New("connection reset")}
	m := &mockImporter{ImportFunc: func(context.Context, importapi.ImportRequest) (*importapi.ImportResult, error) {
		return nil, boom
	}}
	res, err := importapi.NewExecutor(m, nil, nil).Execute(context.Background(), validRequest())
	assert.Nil(t, res)
	require.ErrorIs(t, err, boom)
}

func TestExclusiveFallbacks(t *testing.T) {
	got := importapi.ExclusiveFallbacks(
		fields.Mapping{"origin": "From", "notes": ""},
		map[string]string{"origin": "HQ", "notes": "n/a", "rate": ""},
	)
	assert.Equal(t, map[string]string{"notes": "n/a"}, got)
}
