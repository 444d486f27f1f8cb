package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fidolity-token-api/internal/apiclient"
	"fidolity-token-api/internal/appconfig"
	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/handlers"
	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/internal/store"
	"fidolity-token-api/pkg/logger"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testWallet = "So11111111111111111111111111111111111111112"
	usdcMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type fakeChain struct {
	balance float64
	err     error
}

func (f *fakeChain) GetBalance(context.Context, string) (float64, error) {
	return f.balance, f.err
}

func (f *fakeChain) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, errors.New("not implemented")
}

func (f *fakeChain) SendRawTransaction(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not implemented")
}

func (f *fakeChain) ConfirmTransaction(context.Context, solana.Signature) error {
	return errors.New("not implemented")
}

// failingUpsertStore rejects upserts so set-contract-address falls back to a plain update
type failingUpsertStore struct {
	*store.MemoryStore
}

func (failingUpsertStore) UpsertTokenInfo(context.Context, *models.TokenInfo) (*models.TokenInfo, error) {
	return nil, errors.New("upsert not permitted")
}

type testApp struct {
	*app
	store     *store.MemoryStore
	overrides *appconfig.FileOverrideStore
	chain     *fakeChain
}

// newTestApp wires every command against in-process fakes. The backend API is the real
// router over a MemoryStore, served by httptest.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.SetLogger(zap.NewNop())
	color.NoColor = true

	cfg := config.LoadConfig()
	cfg.Token.Symbol = "FDLT"
	cfg.Token.Name = "Fidolity Token"
	cfg.Token.Blockchain = "SOLANA"
	cfg.Token.Decimals = 9
	cfg.Staking.TokenAddress = models.TokenPlaceholder
	cfg.Staking.ProgramAddress = models.StakingProgramPlaceholder
	cfg.Staking.SimulateDelay = 0

	memory := store.NewMemoryStore()
	engine := gin.New()
	handlers.NewRouter(memory, nil, nil, handlers.NewHealthHandler(services.NewPingHealthChecker("mongodb", memory), nil)).SetupRoutes(engine)
	backend := httptest.NewServer(engine)
	t.Cleanup(backend.Close)

	overrides := appconfig.NewFileOverrideStore(filepath.Join(t.TempDir(), "profile.yaml"))
	chain := &fakeChain{}

	ta := &testApp{store: memory, overrides: overrides, chain: chain}
	ta.app = &app{
		cfg: cfg,
		openStore: func(context.Context) (store.Store, func(), error) {
			return memory, func() {}, nil
		},
		api: func() services.API {
			return apiclient.New(backend.URL+"/api", backend.Client())
		},
		chain:       func() services.ChainClient { return chain },
		overrides:   func() appconfig.OverrideStore { return overrides },
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		initLogging: func(bool) error { return nil },
	}
	return ta
}

func (ta *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(ta.app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newKeypair(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func TestCheckTokensEmpty(t *testing.T) {
	ta := newTestApp(t)

	out, err := ta.run(t, "check-tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "No tokens found in database")
}

func TestCheckTokensRendersTable(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	now := models.Now()
	require.NoError(t, ta.store.InsertTokenInfo(ctx, &models.TokenInfo{
		ID: models.NewID(), TokenSymbol: "FDLT", TokenName: "Fidolity Token",
		ContractAddress: usdcMint, Blockchain: "SOLANA", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, ta.store.InsertTokenInfo(ctx, &models.TokenInfo{
		ID: models.NewID(), TokenSymbol: "OLD", TokenName: "Old Token",
		ContractAddress: models.UnlaunchedSentinel, Blockchain: "SOLANA", CreatedAt: now, UpdatedAt: now,
	}))

	out, err := ta.run(t, "check-tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 token(s)")
	assert.Contains(t, out, "FDLT")
	assert.Contains(t, out, "OLD")
	assert.Contains(t, out, "https://solscan.io/token/"+usdcMint)
	assert.Contains(t, out, "false")
}

func TestSetContractAddress(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()

	out, err := ta.run(t, "set-contract-address", usdcMint)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully updated!")

	row, err := ta.store.TokenInfo(ctx, "FDLT")
	require.NoError(t, err)
	assert.Equal(t, usdcMint, row.ContractAddress)
	assert.Equal(t, "Fidolity Token", row.TokenName)
	assert.True(t, row.IsActive)

	_, err = ta.run(t, "set-contract-address")
	require.NoError(t, err)
	row, err = ta.store.TokenInfo(ctx, "FDLT")
	require.NoError(t, err)
	assert.False(t, row.Contract().IsLive())
}

func TestSetContractAddressRejectsInvalidAddress(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.run(t, "set-contract-address", "not-a-key!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid contract address")

	_, err = ta.store.TokenInfo(context.Background(), "FDLT")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetContractAddressFallsBackToUpdate(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	now := models.Now()
	require.NoError(t, ta.store.InsertTokenInfo(ctx, &models.TokenInfo{
		ID: models.NewID(), TokenSymbol: "FDLT", TokenName: "Fidolity Token",
		ContractAddress: models.UnlaunchedSentinel, Blockchain: "SOLANA", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))
	ta.openStore = func(context.Context) (store.Store, func(), error) {
		return failingUpsertStore{ta.store}, func() {}, nil
	}

	out, err := ta.run(t, "set-contract-address", usdcMint)
	require.NoError(t, err)
	assert.Contains(t, out, "trying plain update")

	row, err := ta.store.TokenInfo(ctx, "FDLT")
	require.NoError(t, err)
	assert.Equal(t, usdcMint, row.ContractAddress)
}

func TestGenerateConfig(t *testing.T) {
	ta := newTestApp(t)
	path := filepath.Join(t.TempDir(), "public", "config.json")

	out, err := ta.run(t, "generate-config", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc models.AppConfig
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FDLT", doc.Token.Symbol)
	assert.Equal(t, ta.cfg.Staking.BaseAPY, doc.Staking.BaseAPY)
	assert.Contains(t, string(data), `"contractAddress"`)
}

func TestUpdateConfig(t *testing.T) {
	ta := newTestApp(t)
	dist := t.TempDir()
	path := filepath.Join(dist, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":{"symbol":"FDLT","contractAddress":"soon"},"theme":"dark"}`), 0o644))

	_, err := ta.run(t, "update-config", usdcMint, "--dist", dist)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "dark", doc["theme"])
	token := doc["token"].(map[string]interface{})
	assert.Equal(t, usdcMint, token["contractAddress"])
	assert.Equal(t, "FDLT", token["symbol"])
}

func TestUpdateConfigWithoutAddressLeavesFile(t *testing.T) {
	ta := newTestApp(t)
	t.Setenv("CONTRACT_ADDRESS", "")
	dist := t.TempDir()
	path := filepath.Join(dist, "config.json")
	original := []byte(`{"token":{"contractAddress":"soon"}}`)
	require.NoError(t, os.WriteFile(path, original, 0o644))

	out, err := ta.run(t, "update-config", "--dist", dist)
	require.NoError(t, err)
	assert.Contains(t, out, "left unchanged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestUpdateConfigRequiresDist(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.run(t, "update-config", usdcMint, "--dist", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfigOverride(t *testing.T) {
	ta := newTestApp(t)

	doc := ta.cfg.AppConfig()
	configServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(configServer.Close)
	ta.cfg.Client.ConfigURL = configServer.URL

	out, err := ta.run(t, "config", "override", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "No override set")

	_, err = ta.run(t, "config", "override", "set", "soon")
	require.Error(t, err)

	_, err = ta.run(t, "config", "override", "set", usdcMint)
	require.NoError(t, err)
	addr, ok, err := ta.overrides.ContractAddressOverride()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, usdcMint, addr)

	out, err = ta.run(t, "config", "show")
	require.NoError(t, err)
	var shown models.AppConfig
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	got, live := shown.Token.ContractAddress.Address()
	assert.True(t, live)
	assert.Equal(t, usdcMint, got)

	_, err = ta.run(t, "config", "override", "clear")
	require.NoError(t, err)
	_, ok, err = ta.overrides.ContractAddressOverride()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBalance(t *testing.T) {
	ta := newTestApp(t)
	ta.chain.balance = 1.5

	out, err := ta.run(t, "balance", testWallet)
	require.NoError(t, err)
	assert.Contains(t, out, "1.5 SOL")

	_, err = ta.run(t, "balance", "bogus!")
	require.Error(t, err)

	ta.chain.err = errors.New("rpc down")
	_, err = ta.run(t, "balance", testWallet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc down")
}

func TestStakeUnstakeSimulated(t *testing.T) {
	ta := newTestApp(t)
	key := newKeypair(t)

	out, err := ta.run(t, "stake", "5", "--keypair", key.String())
	require.NoError(t, err)
	assert.Contains(t, out, services.SimulatedStakePrefix)
	assert.Contains(t, out, "simulated")

	stakes, err := ta.store.StakesByWallet(context.Background(), key.PublicKey().String())
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.Equal(t, 5.0, stakes[0].StakedAmount)
	assert.Equal(t, "FDLT", stakes[0].TokenSymbol)

	out, err = ta.run(t, "tvl")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Value Locked: 5")

	out, err = ta.run(t, "unstake", "5", "--keypair", key.String())
	require.NoError(t, err)
	assert.Contains(t, out, services.SimulatedUnstakePrefix)

	out, err = ta.run(t, "tvl")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Value Locked: 0")
}

func TestStakeRequiresWallet(t *testing.T) {
	ta := newTestApp(t)
	t.Setenv(EnvKeypair, "")

	_, err := ta.run(t, "stake", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrWalletNotConnected)

	_, err = ta.run(t, "stake", "-1", "--keypair", newKeypair(t).String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestUnstakeWithoutStakeReportsLedgerFailure(t *testing.T) {
	ta := newTestApp(t)
	key := newKeypair(t)

	out, err := ta.run(t, "unstake", "2", "--keypair", key.String())
	require.Error(t, err)

	var ledgerErr *services.LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	assert.Contains(t, ledgerErr.Signature, services.SimulatedUnstakePrefix)
	assert.Contains(t, out, "ledger was not updated")
	assert.True(t, apiclient.IsNotFound(ledgerErr.Err))
}
