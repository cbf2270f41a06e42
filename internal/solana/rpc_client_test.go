package solana

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer replies to each JSON-RPC request with the given result payload
// and records request bodies.
func rpcServer(t *testing.T, result string) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(body))

		var req rpcRequest
		require.NoError(t, json.Unmarshal(body, &req))

		w.Header().Set("Content-Type", "application/json")
		resp := `{"jsonrpc":"2.0","id":` + jsonUint(req.ID) + `,"result":` + result + `}`
		w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func jsonUint(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGetTokenAccountBalance(t *testing.T) {
	srv, _ := rpcServer(t, `{"context":{"slot":1},"value":{"amount":"2500000000","decimals":6,"uiAmount":2500.0}}`)

	client := NewHTTPClient(srv.URL)
	amt, err := client.GetTokenAccountBalance(context.Background(), "somekey")
	require.NoError(t, err)

	assert.Equal(t, "2500000000", amt.Amount)
	assert.Equal(t, 6, amt.Decimals)
	assert.Equal(t, 2500.0, amt.UIAmount)
}

func TestGetTokenSupplyNullUIAmount(t *testing.T) {
	srv, _ := rpcServer(t, `{"context":{"slot":1},"value":{"amount":"0","decimals":9,"uiAmount":null}}`)

	client := NewHTTPClient(srv.URL)
	amt, err := client.GetTokenSupply(context.Background(), "mint")
	require.NoError(t, err)
	assert.Equal(t, 0.0, amt.UIAmount)
}

func TestGetAccountInfoDecodesBase64(t *testing.T) {
	srv, _ := rpcServer(t, `{"context":{"slot":1},"value":{"lamports":5,"owner":"own","data":["aGVsbG8=","base64"],"executable":false,"rentEpoch":0}}`)

	client := NewHTTPClient(srv.URL)
	info, err := client.GetAccountInfo(context.Background(), "acct")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, []byte("hello"), info.Data)
	assert.Equal(t, uint64(5), info.Lamports)
}

func TestGetAccountInfoMissingAccount(t *testing.T) {
	srv, _ := rpcServer(t, `{"context":{"slot":1},"value":null}`)

	client := NewHTTPClient(srv.URL)
	info, err := client.GetAccountInfo(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetProgramAccountsFilterSerialization(t *testing.T) {
	srv, bodies := rpcServer(t, `[]`)

	client := NewHTTPClient(srv.URL)
	_, err := client.GetProgramAccounts(context.Background(), "program", &ProgramFilters{
		DataSize: 88,
		Memcmp:   []Memcmp{{Offset: 8, Bytes: "3QzKes"}},
	})
	require.NoError(t, err)
	require.Len(t, *bodies, 1)

	// Filter objects serialize with keys in lexicographic order, memcmp
	// entries before dataSize, so identical scans produce identical bodies.
	body := (*bodies)[0]
	assert.Contains(t, body, `"filters":[{"memcmp":{"bytes":"3QzKes","offset":8}},{"dataSize":88}]`)
	assert.Contains(t, body, `"commitment":"max"`)
	assert.Contains(t, body, `"encoding":"base64"`)
}

func TestGetProgramAccountsNoFilters(t *testing.T) {
	srv, bodies := rpcServer(t, `[]`)

	client := NewHTTPClient(srv.URL)
	_, err := client.GetProgramAccounts(context.Background(), "program", nil)
	require.NoError(t, err)
	require.Len(t, *bodies, 1)
	assert.NotContains(t, (*bodies)[0], `"filters"`)
}

func TestGetProgramAccountsDecodesData(t *testing.T) {
	srv, _ := rpcServer(t, `[{"pubkey":"k1","account":{"lamports":1,"owner":"p","data":["aGk=","base64"],"executable":false,"rentEpoch":0}}]`)

	client := NewHTTPClient(srv.URL)
	accounts, err := client.GetProgramAccounts(context.Background(), "program", nil)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "k1", accounts[0].Pubkey)
	assert.Equal(t, []byte("hi"), accounts[0].Data)
}

func TestRPCErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithMaxRetries(3))
	_, err := client.GetTokenSupply(context.Background(), "mint")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Invalid param"))
	assert.Equal(t, 1, calls)
}

func TestRateLimitedRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.Copy(io.Discard, r.Body)
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":2,"result":{"value":{"amount":"1","decimals":0,"uiAmount":1.0}}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithMaxRetries(2))
	client.retryDelay = 0

	amt, err := client.GetTokenSupply(context.Background(), "mint")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "1", amt.Amount)
}

func TestCommitmentOption(t *testing.T) {
	srv, bodies := rpcServer(t, `{"context":{"slot":1},"value":{"amount":"1","decimals":0,"uiAmount":1.0}}`)

	client := NewHTTPClient(srv.URL, WithCommitment("confirmed"))
	_, err := client.GetTokenAccountBalance(context.Background(), "acct")
	require.NoError(t, err)
	require.Len(t, *bodies, 1)
	assert.Contains(t, (*bodies)[0], `"commitment":"confirmed"`)
}
