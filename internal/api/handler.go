// Package api exposes the coordinator over HTTP. Reads are public; every
// mutation is an EIP-191 signed envelope whose recovered address is the
// caller the coordinator authorizes against.
package api

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/auth"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/settler"
)

// Signed actions. Each mutation accepts exactly one.
const (
	ActionCreateSubscription   = "subscription.create"
	ActionFundSubscription     = "subscription.fund"
	ActionWithdrawSubscription = "subscription.withdraw"
	ActionCancelSubscription   = "subscription.cancel"
	ActionSetConsumers         = "subscription.set_consumers"
	ActionAddConsumer          = "subscription.add_consumer"
	ActionRemoveConsumer       = "subscription.remove_consumer"
	ActionRequestOwnerTransfer = "subscription.request_owner_transfer"
	ActionAcceptOwnerTransfer  = "subscription.accept_owner_transfer"
	ActionRequestRandomWords   = "randomness.request"
	ActionFulfill              = "randomness.fulfill"
	ActionEnqueueFulfillment   = "randomness.enqueue"
	ActionOperatorWithdraw     = "operator.withdraw"
	ActionSetCallback          = "consumer.set_callback"
	ActionSetConfig            = "admin.set_config"
	ActionRegisterKey          = "admin.register_key"
	ActionMint                 = "admin.mint"
)

// Ledger is the token surface the API reads and, for the admin faucet, mints on.
type Ledger interface {
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
}

// Webhooks stores consumer callback URLs.
type Webhooks interface {
	SetURL(ctx context.Context, consumer common.Address, raw string) error
	URL(ctx context.Context, consumer common.Address) (string, error)
}

// Deps is everything the handler talks to.
type Deps struct {
	Coordinator *coordinator.Coordinator
	Ledger      Ledger
	Webhooks    Webhooks
	Redis       *redis.Client
	Gas         settler.GasPricer
	Queue       string
	// DefaultGasLimit seeds synchronous fulfillments that omit gas_limit.
	DefaultGasLimit uint64
	Log             *zap.Logger
}

// Handler wires all coordinator routes onto a Gin engine.
type Handler struct {
	coord    *coordinator.Coordinator
	ledger   Ledger
	hooks    Webhooks
	rdb      *redis.Client
	gas      settler.GasPricer
	queue    string
	gasLimit uint64
	log      *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Queue == "" {
		d.Queue = settler.QueueKey
	}
	if d.DefaultGasLimit == 0 {
		d.DefaultGasLimit = 2_500_000
	}
	return &Handler{
		coord:    d.Coordinator,
		ledger:   d.Ledger,
		hooks:    d.Webhooks,
		rdb:      d.Redis,
		gas:      d.Gas,
		queue:    d.Queue,
		gasLimit: d.DefaultGasLimit,
		log:      d.Log,
	}
}

// Register mounts the public, signed and admin routes under rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	// ── Public reads ───────────────────────────────────────────────────────
	rg.GET("/config", h.handleGetConfig)
	rg.GET("/keys", h.handleListKeys)
	rg.GET("/subscriptions/:id", h.handleGetSubscription)
	rg.GET("/requests/:id/commitment", h.handleGetCommitment)
	rg.GET("/operators/:addr/withdrawable", h.handleWithdrawable)
	rg.GET("/tokens/:addr/balance", h.handleTokenBalance)
	rg.GET("/consumers/:addr/callback", h.handleGetCallback)

	// ── Signed mutations ───────────────────────────────────────────────────
	signed := rg.Group("", auth.Middleware(h.rdb))
	signed.POST("/subscriptions", h.handleCreateSubscription)
	signed.POST("/subscriptions/:id/fund", h.handleFund)
	signed.POST("/subscriptions/:id/withdraw", h.handleWithdrawFromSubscription)
	signed.POST("/subscriptions/:id/cancel", h.handleCancel)
	signed.PUT("/subscriptions/:id/consumers", h.handleSetConsumers)
	signed.POST("/subscriptions/:id/consumers", h.handleAddConsumer)
	signed.DELETE("/subscriptions/:id/consumers/:consumer", h.handleRemoveConsumer)
	signed.POST("/subscriptions/:id/owner-transfer", h.handleRequestOwnerTransfer)
	signed.POST("/subscriptions/:id/owner-transfer/accept", h.handleAcceptOwnerTransfer)
	signed.POST("/requests", h.handleRequestRandomWords)
	signed.POST("/fulfillments", h.handleFulfill)
	signed.POST("/fulfillments/queue", h.handleEnqueueFulfillment)
	signed.POST("/operators/withdraw", h.handleOperatorWithdraw)
	signed.PUT("/consumers/callback", h.handleSetCallback)

	// ── Admin ──────────────────────────────────────────────────────────────
	admin := signed.Group("/admin", auth.RequireAdmin(h.coord.Admin()))
	admin.PUT("/config", h.handleSetConfig)
	admin.POST("/keys", h.handleRegisterKey)
	admin.POST("/mint", h.handleMint)
}

// ── Request helpers ───────────────────────────────────────────────────────────

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() <= 0 {
		return nil, badRequest("amount %q must be a positive integer", s)
	}
	return v, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, badRequest("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// subID reads :id and checks it against the id the caller signed.
func subID(c *gin.Context, signed uint64) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, badRequest("invalid subscription id %q", c.Param("id"))
	}
	if signed != id {
		return 0, badRequest("signed sub_id %d does not match path %d", signed, id)
	}
	return id, nil
}

// signedCall binds the envelope payload for action and returns the caller.
func signedCall(c *gin.Context, action string, dst any) (common.Address, error) {
	caller, ok := auth.Caller(c)
	if !ok {
		return common.Address{}, auth.ErrUnauthenticated
	}
	if err := auth.BindPayload(c, action, dst); err != nil {
		return common.Address{}, err
	}
	return caller, nil
}

// ── Views ─────────────────────────────────────────────────────────────────────

type configView struct {
	MinimumRequestConfirmations uint16 `json:"minimum_request_confirmations"`
	MaxConsumers                uint16 `json:"max_consumers"`
	StalenessSeconds            uint32 `json:"staleness_seconds"`
	GasAfterPaymentCalculation  uint32 `json:"gas_after_payment_calculation"`
	FallbackWeiPerUnitLink      string `json:"fallback_wei_per_unit_link"`
}

func toConfigView(cfg coordinator.Config) configView {
	v := configView{
		MinimumRequestConfirmations: cfg.MinimumRequestConfirmations,
		MaxConsumers:                cfg.MaxConsumers,
		StalenessSeconds:            cfg.StalenessSeconds,
		GasAfterPaymentCalculation:  cfg.GasAfterPaymentCalculation,
	}
	if cfg.FallbackWeiPerUnitLink != nil {
		v.FallbackWeiPerUnitLink = cfg.FallbackWeiPerUnitLink.String()
	}
	return v
}

type subscriptionView struct {
	ID             uint64           `json:"id"`
	Owner          common.Address   `json:"owner"`
	RequestedOwner common.Address   `json:"requested_owner"`
	Balance        string           `json:"balance"`
	Consumers      []common.Address `json:"consumers"`
}

type fulfillmentView struct {
	RequestID common.Hash    `json:"request_id"`
	Words     []string       `json:"random_words"`
	Success   bool           `json:"success"`
	Payment   string         `json:"payment"`
	Operator  common.Address `json:"operator"`
	GasUsed   uint64         `json:"gas_used"`
}

// ── Public reads ──────────────────────────────────────────────────────────────

func (h *Handler) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, toConfigView(h.coord.GetConfig(c.Request.Context())))
}

func (h *Handler) handleListKeys(c *gin.Context) {
	ctx := c.Request.Context()
	type keyView struct {
		KeyHash  common.Hash    `json:"key_hash"`
		Operator common.Address `json:"operator"`
	}
	keys := h.coord.ProvingKeys(ctx)
	out := make([]keyView, 0, len(keys))
	for _, k := range keys {
		op, _ := h.coord.Operator(ctx, k)
		out = append(out, keyView{KeyHash: k, Operator: op})
	}
	c.JSON(http.StatusOK, gin.H{"keys": out})
}

func (h *Handler) handleGetSubscription(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, badRequest("invalid subscription id %q", c.Param("id")))
		return
	}
	sub, err := h.coord.GetSubscription(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, subscriptionView{
		ID:             sub.ID,
		Owner:          sub.Owner,
		RequestedOwner: sub.RequestedOwner,
		Balance:        sub.Balance.String(),
		Consumers:      sub.Consumers,
	})
}

func (h *Handler) handleGetCommitment(c *gin.Context) {
	raw, err := hexutil.Decode(c.Param("id"))
	if err != nil || len(raw) != common.HashLength {
		h.fail(c, badRequest("invalid request id %q", c.Param("id")))
		return
	}
	reqID := common.BytesToHash(raw)
	commitment, ok := h.coord.GetCommitment(c.Request.Context(), reqID)
	if !ok {
		h.fail(c, coordinator.ErrNoCorrespondingRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": reqID, "commitment": commitment})
}

func (h *Handler) handleWithdrawable(c *gin.Context) {
	op, err := parseAddress(c.Param("addr"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operator":     op,
		"withdrawable": h.coord.WithdrawableBalance(c.Request.Context(), op).String(),
	})
}

func (h *Handler) handleTokenBalance(c *gin.Context) {
	holder, err := parseAddress(c.Param("addr"))
	if err != nil {
		h.fail(c, err)
		return
	}
	bal, err := h.ledger.BalanceOf(c.Request.Context(), holder)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holder": holder, "balance": bal.String()})
}

func (h *Handler) handleGetCallback(c *gin.Context) {
	consumer, err := parseAddress(c.Param("addr"))
	if err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.hooks.URL(c.Request.Context(), consumer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consumer": consumer, "url": u})
}

// ── Subscriptions ─────────────────────────────────────────────────────────────

func (h *Handler) handleCreateSubscription(c *gin.Context) {
	var p struct {
		Consumers []common.Address `json:"consumers"`
	}
	caller, err := signedCall(c, ActionCreateSubscription, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := h.coord.CreateSubscription(c.Request.Context(), caller, p.Consumers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sub_id": id})
}

type amountPayload struct {
	SubID  uint64 `json:"sub_id"`
	Amount string `json:"amount"`
}

func (h *Handler) handleFund(c *gin.Context) {
	var p amountPayload
	caller, err := signedCall(c, ActionFundSubscription, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.FundSubscription(c.Request.Context(), caller, id, amount); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleWithdrawFromSubscription(c *gin.Context) {
	var p struct {
		amountPayload
		To common.Address `json:"to"`
	}
	caller, err := signedCall(c, ActionWithdrawSubscription, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.WithdrawFromSubscription(c.Request.Context(), caller, id, p.To, amount); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleCancel(c *gin.Context) {
	var p struct {
		SubID uint64         `json:"sub_id"`
		To    common.Address `json:"to"`
	}
	caller, err := signedCall(c, ActionCancelSubscription, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.CancelSubscription(c.Request.Context(), caller, id, p.To); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleSetConsumers(c *gin.Context) {
	var p struct {
		SubID     uint64           `json:"sub_id"`
		Consumers []common.Address `json:"consumers"`
	}
	caller, err := signedCall(c, ActionSetConsumers, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.UpdateSubscription(c.Request.Context(), caller, id, p.Consumers); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type consumerPayload struct {
	SubID    uint64         `json:"sub_id"`
	Consumer common.Address `json:"consumer"`
}

func (h *Handler) handleAddConsumer(c *gin.Context) {
	var p consumerPayload
	caller, err := signedCall(c, ActionAddConsumer, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.AddConsumer(c.Request.Context(), caller, id, p.Consumer); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleRemoveConsumer(c *gin.Context) {
	var p consumerPayload
	caller, err := signedCall(c, ActionRemoveConsumer, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	consumer, err := parseAddress(c.Param("consumer"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if consumer != p.Consumer {
		h.fail(c, badRequest("signed consumer %s does not match path", p.Consumer.Hex()))
		return
	}
	if err := h.coord.RemoveConsumer(c.Request.Context(), caller, id, consumer); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleRequestOwnerTransfer(c *gin.Context) {
	var p struct {
		SubID    uint64         `json:"sub_id"`
		NewOwner common.Address `json:"new_owner"`
	}
	caller, err := signedCall(c, ActionRequestOwnerTransfer, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.RequestSubscriptionOwnerTransfer(c.Request.Context(), caller, id, p.NewOwner); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleAcceptOwnerTransfer(c *gin.Context) {
	var p struct {
		SubID uint64 `json:"sub_id"`
	}
	caller, err := signedCall(c, ActionAcceptOwnerTransfer, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := subID(c, p.SubID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.AcceptSubscriptionOwnerTransfer(c.Request.Context(), caller, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Randomness ────────────────────────────────────────────────────────────────

func (h *Handler) handleRequestRandomWords(c *gin.Context) {
	var p struct {
		KeyHash          common.Hash `json:"key_hash"`
		SubID            uint64      `json:"sub_id"`
		MinConfirmations uint16      `json:"min_confirmations"`
		CallbackGasLimit uint32      `json:"callback_gas_limit"`
		NumWords         uint32      `json:"num_words"`
	}
	caller, err := signedCall(c, ActionRequestRandomWords, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	reqID, err := h.coord.RequestRandomWords(c.Request.Context(), caller, coordinator.Request{
		KeyHash:          p.KeyHash,
		SubID:            p.SubID,
		MinConfirmations: p.MinConfirmations,
		CallbackGasLimit: p.CallbackGasLimit,
		NumWords:         p.NumWords,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request_id": reqID})
}

type fulfillPayload struct {
	Proof    hexutil.Bytes `json:"proof"`
	GasLimit uint64        `json:"gas_limit"`
	GasPrice string        `json:"gas_price"`
}

// gasPrice is the unit price a fulfillment is paid at. A submitter may ask for
// less than the chain's suggested price but never more.
func (h *Handler) gasPrice(ctx context.Context, raw string) (*big.Int, error) {
	if h.gas == nil {
		return nil, fmt.Errorf("no gas price source configured")
	}
	suggested, err := h.gas.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	if raw == "" {
		return suggested, nil
	}
	v, ok := math.ParseBig256(raw)
	if !ok || v.Sign() < 0 {
		return nil, badRequest("invalid gas_price %q", raw)
	}
	if v.Cmp(suggested) > 0 {
		h.log.Warn("gas_price above suggested price, clamping",
			zap.String("requested", v.String()),
			zap.String("suggested", suggested.String()),
		)
		return suggested, nil
	}
	return v, nil
}

func (h *Handler) handleFulfill(c *gin.Context) {
	var p fulfillPayload
	if _, err := signedCall(c, ActionFulfill, &p); err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	price, err := h.gasPrice(ctx, p.GasPrice)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit := p.GasLimit
	if limit == 0 {
		limit = h.gasLimit
	}
	res, err := h.coord.FulfillRandomWords(ctx, coordinator.Fulfillment{Proof: p.Proof, GasLimit: limit, GasPrice: price})
	if err != nil {
		h.fail(c, err)
		return
	}
	words := make([]string, len(res.Words))
	for i, w := range res.Words {
		words[i] = w.String()
	}
	c.JSON(http.StatusOK, fulfillmentView{
		RequestID: res.RequestID,
		Words:     words,
		Success:   res.Success,
		Payment:   res.Payment.String(),
		Operator:  res.Operator,
		GasUsed:   res.GasUsed,
	})
}

func (h *Handler) handleEnqueueFulfillment(c *gin.Context) {
	var p fulfillPayload
	if _, err := signedCall(c, ActionEnqueueFulfillment, &p); err != nil {
		h.fail(c, err)
		return
	}
	if len(p.Proof) == 0 {
		h.fail(c, badRequest("proof is required"))
		return
	}
	s := settler.Submission{Proof: p.Proof, GasLimit: p.GasLimit, SubmittedAt: time.Now().Unix()}
	if p.GasPrice != "" {
		price, err := h.gasPrice(c.Request.Context(), p.GasPrice)
		if err != nil {
			h.fail(c, err)
			return
		}
		s.GasPrice = (*hexutil.Big)(price)
	}
	if err := settler.Enqueue(c.Request.Context(), h.rdb, h.queue, s); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

// ── Operators and consumers ───────────────────────────────────────────────────

func (h *Handler) handleOperatorWithdraw(c *gin.Context) {
	var p struct {
		To     common.Address `json:"to"`
		Amount string         `json:"amount"`
	}
	caller, err := signedCall(c, ActionOperatorWithdraw, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.coord.Withdraw(c.Request.Context(), caller, p.To, amount); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleSetCallback(c *gin.Context) {
	var p struct {
		URL string `json:"url"`
	}
	caller, err := signedCall(c, ActionSetCallback, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.hooks.SetURL(c.Request.Context(), caller, p.URL); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (h *Handler) handleSetConfig(c *gin.Context) {
	var p configView
	caller, err := signedCall(c, ActionSetConfig, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	fallback, err := parseAmount(p.FallbackWeiPerUnitLink)
	if err != nil {
		h.fail(c, err)
		return
	}
	cfg := coordinator.Config{
		MinimumRequestConfirmations: p.MinimumRequestConfirmations,
		MaxConsumers:                p.MaxConsumers,
		StalenessSeconds:            p.StalenessSeconds,
		GasAfterPaymentCalculation:  p.GasAfterPaymentCalculation,
		FallbackWeiPerUnitLink:      fallback,
	}
	if err := h.coord.SetConfig(c.Request.Context(), caller, cfg); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toConfigView(cfg))
}

func (h *Handler) handleRegisterKey(c *gin.Context) {
	var p struct {
		Operator  common.Address `json:"operator"`
		PublicKey [2]string      `json:"public_key"`
	}
	caller, err := signedCall(c, ActionRegisterKey, &p)
	if err != nil {
		h.fail(c, err)
		return
	}
	var pk [2]*big.Int
	for i, s := range p.PublicKey {
		v, ok := math.ParseBig256(s)
		if !ok {
			h.fail(c, badRequest("invalid public key coordinate %q", s))
			return
		}
		pk[i] = v
	}
	keyHash, err := h.coord.RegisterProvingKey(c.Request.Context(), caller, p.Operator, pk)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key_hash": keyHash})
}

func (h *Handler) handleMint(c *gin.Context) {
	var p struct {
		To     common.Address `json:"to"`
		Amount string         `json:"amount"`
	}
	if _, err := signedCall(c, ActionMint, &p); err != nil {
		h.fail(c, err)
		return
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.ledger.Mint(c.Request.Context(), p.To, amount); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("tokens minted", zap.String("to", p.To.Hex()), zap.String("amount", amount.String()))
	c.Status(http.StatusNoContent)
}
