package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fidolity-token-api/internal/apiclient"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// decodeTransaction parses a wire-encoded transaction as submitted to the RPC node
func decodeTransaction(raw []byte) (*solana.Transaction, error) {
	return solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
}

// callLog records the order of chain and wallet calls
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// mockChain implements ChainClient
type mockChain struct {
	log        *callLog
	balance    float64
	balanceErr error
	sendErr    error
	confirmErr error
	sent       [][]byte
}

func (m *mockChain) GetBalance(ctx context.Context, address string) (float64, error) {
	m.log.add("balance")
	return m.balance, m.balanceErr
}

func (m *mockChain) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	m.log.add("blockhash")
	return solana.HashFromBytes([]byte("01234567890123456789012345678901")), nil
}

func (m *mockChain) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	m.log.add("submit")
	if m.sendErr != nil {
		return solana.Signature{}, m.sendErr
	}
	m.sent = append(m.sent, raw)
	tx, err := decodeTransaction(raw)
	if err != nil {
		return solana.Signature{}, err
	}
	return tx.Signatures[0], nil
}

func (m *mockChain) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	m.log.add("confirm")
	return m.confirmErr
}

// recordingWallet signs with a real keypair and logs the call
type recordingWallet struct {
	inner   *KeypairWallet
	log     *callLog
	signErr error
}

func (w *recordingWallet) PublicKey() solana.PublicKey { return w.inner.PublicKey() }

func (w *recordingWallet) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	w.log.add("sign")
	if w.signErr != nil {
		return w.signErr
	}
	return w.inner.SignTransaction(ctx, tx)
}

// fakeAPI implements API with canned JSON responses keyed by "METHOD path"
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	requests  []fakeRequest
}

type fakeRequest struct {
	Method string
	Path   string
	Body   []byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeAPI) on(method, path, body string) *fakeAPI {
	f.responses[method+" "+path] = body
	return f
}

func (f *fakeAPI) fail(method, path string, err error) *fakeAPI {
	f.errs[method+" "+path] = err
	return f
}

func (f *fakeAPI) calls() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.requests...)
}

func (f *fakeAPI) do(method, path string, body, out interface{}) error {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, fakeRequest{Method: method, Path: path, Body: raw})
	err := f.errs[method+" "+path]
	resp, ok := f.responses[method+" "+path]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return &apiclient.APIError{StatusCode: 404, Message: fmt.Sprintf("no route %s %s", method, path)}
	}
	if out == nil || resp == "" {
		return nil
	}
	return json.Unmarshal([]byte(resp), out)
}

func (f *fakeAPI) Get(ctx context.Context, path string, out interface{}) error {
	return f.do("GET", path, nil, out)
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, out interface{}) error {
	return f.do("POST", path, body, out)
}

func (f *fakeAPI) Patch(ctx context.Context, path string, body, out interface{}) error {
	return f.do("PATCH", path, body, out)
}

func (f *fakeAPI) Delete(ctx context.Context, path string, out interface{}) error {
	return f.do("DELETE", path, nil, out)
}

var errBoom = errors.New("boom")
