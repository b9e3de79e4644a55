package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tycoon_ledger/internal/chain"
	"tycoon_ledger/internal/domain"
	"tycoon_ledger/internal/http/middleware"
)

type initializeRequest struct {
	PrimaryToken string `json:"primary_token" binding:"required"`
	StableToken  string `json:"stable_token" binding:"required"`
	Owner        string `json:"owner" binding:"required"`
	RewardSystem string `json:"reward_system" binding:"required"`
}

// Initialize stores the ledger configuration. The bearer token must belong
// to the owner being configured.
func (h *Handler) Initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "primary_token, stable_token, owner and reward_system are required")
		return
	}

	addrs, ok := parseAddresses(c, req.PrimaryToken, req.StableToken, req.Owner, req.RewardSystem)
	if !ok {
		return
	}

	if err := h.Ledger.Initialize(c.Request.Context(), addrs[0], addrs[1], addrs[2], addrs[3]); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.LedgerConfig{
		Owner:        addrs[2],
		PrimaryToken: addrs[0],
		StableToken:  addrs[1],
		RewardSystem: addrs[3],
	})
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.Ledger.GetConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// withdrawRequest takes exactly one of Amount (stroops) or Tokens (whole
// tokens with up to chain.Decimals fractional digits).
type withdrawRequest struct {
	Token  string         `json:"token" binding:"required"`
	To     string         `json:"to" binding:"required"`
	Amount *domain.Amount `json:"amount"`
	Tokens string         `json:"tokens"`
}

func (r withdrawRequest) amount() (domain.Amount, bool) {
	switch {
	case r.Amount != nil && r.Tokens == "":
		return *r.Amount, true
	case r.Amount == nil && r.Tokens != "":
		a, err := chain.ParseTokens(r.Tokens)
		return a, err == nil
	default:
		return domain.Amount{}, false
	}
}

func (h *Handler) WithdrawFunds(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "token, to and an amount are required")
		return
	}
	amount, ok := req.amount()
	if !ok {
		badRequest(c, "exactly one of amount (stroops) or tokens (decimal) is required")
		return
	}

	addrs, ok := parseAddresses(c, req.Token, req.To)
	if !ok {
		return
	}

	if err := h.Ledger.WithdrawFunds(c.Request.Context(), addrs[0], addrs[1], amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  addrs[0],
		"to":     addrs[1],
		"amount": amount,
		"tokens": chain.FormatAmount(amount),
	})
}

type collectibleResponse struct {
	ID domain.ItemID `json:"id"`
	domain.Collectible
}

func (h *Handler) GetCollectible(c *gin.Context) {
	id, err := domain.ParseItemID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.Ledger.GetCollectibleInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collectibleResponse{ID: id, Collectible: item})
}

// collectibleRequest uses pointers so an omitted field can be told apart
// from an explicit zero.
type collectibleRequest struct {
	Perk         *uint32        `json:"perk"`
	Strength     *uint32        `json:"strength"`
	PrimaryPrice *domain.Amount `json:"primary_price"`
	StablePrice  *domain.Amount `json:"stable_price"`
	ShopStock    *uint64        `json:"shop_stock"`
}

func (r collectibleRequest) collectible() (domain.Collectible, bool) {
	if r.Perk == nil || r.Strength == nil || r.PrimaryPrice == nil || r.StablePrice == nil || r.ShopStock == nil {
		return domain.Collectible{}, false
	}
	return domain.Collectible{
		Perk:         *r.Perk,
		Strength:     *r.Strength,
		PrimaryPrice: *r.PrimaryPrice,
		StablePrice:  *r.StablePrice,
		ShopStock:    *r.ShopStock,
	}, true
}

// SetCollectible replaces the whole record. Every field must be present.
func (h *Handler) SetCollectible(c *gin.Context) {
	id, err := domain.ParseItemID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req collectibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid collectible: "+err.Error())
		return
	}
	item, ok := req.collectible()
	if !ok {
		badRequest(c, "perk, strength, primary_price, stable_price and shop_stock are required")
		return
	}

	if err := h.Ledger.SetCollectibleInfo(c.Request.Context(), id, item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collectibleResponse{ID: id, Collectible: item})
}

type cashTierResponse struct {
	Tier  uint32        `json:"tier"`
	Value domain.Amount `json:"value"`
}

func parseTier(c *gin.Context) (uint32, bool) {
	n, err := strconv.ParseUint(c.Param("tier"), 10, 32)
	if err != nil {
		badRequest(c, "tier must be an unsigned 32-bit integer")
		return 0, false
	}
	return uint32(n), true
}

func (h *Handler) GetCashTier(c *gin.Context) {
	tier, ok := parseTier(c)
	if !ok {
		return
	}

	v, err := h.Ledger.GetCashTierValue(c.Request.Context(), tier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cashTierResponse{Tier: tier, Value: v})
}

func (h *Handler) SetCashTier(c *gin.Context) {
	tier, ok := parseTier(c)
	if !ok {
		return
	}

	var req struct {
		Value *domain.Amount `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		badRequest(c, "value must be a decimal string")
		return
	}

	if err := h.Ledger.SetCashTierValue(c.Request.Context(), tier, *req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cashTierResponse{Tier: tier, Value: *req.Value})
}

// RegisterPlayer registers the token's address under the requested username.
func (h *Handler) RegisterPlayer(c *gin.Context) {
	caller, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	u, err := h.Ledger.RegisterPlayer(c.Request.Context(), req.Username, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) IsRegistered(c *gin.Context) {
	addrs, ok := parseAddresses(c, c.Param("address"))
	if !ok {
		return
	}

	registered, err := h.Ledger.IsRegistered(c.Request.Context(), addrs[0])
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addrs[0], "registered": registered})
}

func (h *Handler) MintVoucher(c *gin.Context) {
	addrs, ok := parseAddresses(c, c.Param("address"))
	if !ok {
		return
	}

	if err := h.Ledger.MintRegistrationVoucher(c.Request.Context(), addrs[0]); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player": addrs[0],
		"amount": chain.RegistrationVoucherAmount,
		"tokens": chain.FormatAmount(chain.RegistrationVoucherAmount),
	})
}

// GetUser answers 200 with a null user for unregistered addresses.
func (h *Handler) GetUser(c *gin.Context) {
	addrs, ok := parseAddresses(c, c.Param("address"))
	if !ok {
		return
	}

	u, found, err := h.Ledger.GetUser(c.Request.Context(), addrs[0])
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// parseAddresses validates every raw address, writing a 400 on the first bad one.
func parseAddresses(c *gin.Context, raw ...string) ([]domain.Address, bool) {
	out := make([]domain.Address, 0, len(raw))
	for _, r := range raw {
		a, err := domain.ParseAddress(r)
		if err != nil {
			respondError(c, err)
			return nil, false
		}
		out = append(out, a)
	}
	return out, true
}
