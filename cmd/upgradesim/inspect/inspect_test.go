package inspect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/loadersim/pkg/sealevel"
)

func TestInspect(t *testing.T) {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	programId := privKey.PublicKey()
	programDataAddr, err := sealevel.ProgramDataAddress(programId)
	require.NoError(t, err)

	payloads := map[solana.PublicKey][]byte{
		programId:       sealevel.EncodeProgram(programDataAddr),
		programDataAddr: sealevel.EncodeProgramData(1000, nil, make([]byte, 64)),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Params []json.RawMessage
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var key solana.PublicKey
		require.NoError(t, json.Unmarshal(req.Params[0], &key))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":{"context":{"slot":2000},"value":{"data":[%q,"base64"],"executable":true,"lamports":1000000,"owner":%q,"rentEpoch":0}}}`,
			req.ID, base64.StdEncoding.EncodeToString(payloads[key]), sealevel.BpfLoaderUpgradeableAddr.String())
	}))
	defer server.Close()

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"--url", server.URL, programId.String()})
	require.NoError(t, Cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "program data:    "+programDataAddr.String())
	assert.Contains(t, out.String(), "deployed slot:   1000")
	assert.Contains(t, out.String(), "executable from: 1001")
	assert.Contains(t, out.String(), "authority:       none")
	assert.Contains(t, out.String(), "bytes:           64")
}

func TestInspect_InvalidProgramId(t *testing.T) {
	Cmd.SetArgs([]string{"not-base58!"})
	assert.ErrorContains(t, Cmd.Execute(), "invalid program id")
}
