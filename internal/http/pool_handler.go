package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/http/httputil"
	"github.com/hxuan190/cpmm-router/internal/services/market"
)

// PoolTracker is the part of the market service the pool endpoints need.
type PoolTracker interface {
	TrackedPools() []domain.TrackedPool
	TrackedPool(address solana.PublicKey) (domain.TrackedPool, bool)
	TrackedCount() int
	MetadataCacheSize() int
	ProgramID() solana.PublicKey
	TrackPool(ctx context.Context, address solana.PublicKey) (*domain.Pool, error)
}

type PoolHandler struct {
	tracker PoolTracker
	maxHops int
}

func NewPoolHandler(tracker PoolTracker, maxHops int) *PoolHandler {
	return &PoolHandler{tracker: tracker, maxHops: maxHops}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)

	admin.POST("/:address", h.trackPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse summarises the tracked pool set
type PoolStatsResponse struct {
	// Number of pools quoted against
	PoolCount int `json:"pool_count" example:"42"`

	// Program that owns every tracked pool
	ProgramID string `json:"program_id" example:"CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"`

	// Mints with cached decimals
	MetadataCacheSize int `json:"metadata_cache_size" example:"80"`

	// Longest route the router will consider
	MaxHops int `json:"max_hops" example:"3"`
}

// @Summary Tracked pool statistics
// @Tags pools
// @Produce json
// @Success 200 {object} httputil.Response{data=PoolStatsResponse}
// @Router /api/v1/pools/stats [get]
func (h *PoolHandler) getStats(c *gin.Context) {
	httputil.Success(c, PoolStatsResponse{
		PoolCount:         h.tracker.TrackedCount(),
		ProgramID:         h.tracker.ProgramID().String(),
		MetadataCacheSize: h.tracker.MetadataCacheSize(),
		MaxHops:           h.maxHops,
	})
}

// PoolInfo is the stored configuration of a tracked pool. Reserves are not
// part of it; they are read per quote.
type PoolInfo struct {
	Address     string `json:"address" example:"7JuwJuNU88gurFnyWeiyGKbFmExMWcmRZntn9imEzdny"`
	TokenMintA  string `json:"token_mint_a,omitempty"`
	TokenMintB  string `json:"token_mint_b,omitempty"`
	TokenVaultA string `json:"token_vault_a,omitempty"`
	TokenVaultB string `json:"token_vault_b,omitempty"`
	AmmConfig   string `json:"amm_config,omitempty"`
	DecimalsA   uint8  `json:"decimals_a"`
	DecimalsB   uint8  `json:"decimals_b"`

	// False until the first successful load of a pool seeded by address only
	Loaded bool `json:"loaded"`
}

// PoolListResponse contains a page of tracked pools
type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`
	Total int        `json:"total" example:"42"`
	Page  int        `json:"page" example:"1"`
	Limit int        `json:"limit" example:"100"`
	Pages int        `json:"pages" example:"1"`
}

func toPoolInfo(p domain.TrackedPool) PoolInfo {
	info := PoolInfo{
		Address:   p.Address.String(),
		DecimalsA: p.DecimalsA,
		DecimalsB: p.DecimalsB,
		Loaded:    !p.AmmConfig.IsZero(),
	}
	if info.Loaded {
		info.TokenMintA = p.TokenMintA.String()
		info.TokenMintB = p.TokenMintB.String()
		info.TokenVaultA = p.TokenVaultA.String()
		info.TokenVaultB = p.TokenVaultB.String()
		info.AmmConfig = p.AmmConfig.String()
	}
	return info
}

// @Summary List tracked pools
// @Tags pools
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 500)" default(100)
// @Success 200 {object} httputil.Response{data=PoolListResponse}
// @Router /api/v1/pools/list [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	all := h.tracker.TrackedPools()
	total := len(all)

	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]PoolInfo, 0, end-offset)
	for _, p := range all[offset:end] {
		pools = append(pools, toPoolInfo(p))
	}

	httputil.Success(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

// @Summary Get a tracked pool
// @Tags pools
// @Produce json
// @Param address path string true "Pool address (base58)"
// @Success 200 {object} httputil.Response{data=PoolInfo}
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}
	pool, ok := h.tracker.TrackedPool(address)
	if !ok {
		httputil.NotFound(c, "pool not tracked")
		return
	}
	httputil.Success(c, toPoolInfo(pool))
}

// TrackedPoolResponse is a freshly loaded pool returned by the admin endpoint
type TrackedPoolResponse struct {
	PoolInfo
	ReserveA          string `json:"reserve_a" example:"1234567890"`
	ReserveB          string `json:"reserve_b" example:"9876543210"`
	TradeFeeRatePpm   uint32 `json:"trade_fee_rate_ppm" example:"2500"`
	CreatorFeeRatePpm uint32 `json:"creator_fee_rate_ppm" example:"0"`
	LastUpdatedSlot   uint64 `json:"last_updated_slot" example:"245831456"`
}

// @Summary Track a pool
// @Description Loads the pool fresh from chain and adds it to the tracked set.
// @Tags admin
// @Produce json
// @Param address path string true "Pool address (base58)"
// @Success 200 {object} httputil.Response{data=TrackedPoolResponse}
// @Failure 400 {object} httputil.Response
// @Failure 422 {object} httputil.Response "Account is not a swappable pool of the configured program"
// @Router /api/v1/admin/pools/{address} [post]
func (h *PoolHandler) trackPool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	pool, err := h.tracker.TrackPool(c.Request.Context(), address)
	switch {
	case errors.Is(err, market.ErrPoolNotLoadable):
		httputil.Fail(c, common.HTTPErrorUnprocessable(err.Error()))
		return
	case errors.Is(err, context.DeadlineExceeded):
		httputil.Fail(c, common.HTTPErrorGatewayTimeout("pool state read timed out"))
		return
	case err != nil:
		httputil.Fail(c, common.HTTPErrorInternalError("failed to load pool"))
		return
	}

	tracked, _ := h.tracker.TrackedPool(address)
	httputil.Success(c, TrackedPoolResponse{
		PoolInfo:          toPoolInfo(tracked),
		ReserveA:          pool.ReserveA.String(),
		ReserveB:          pool.ReserveB.String(),
		TradeFeeRatePpm:   pool.Fees.TradeFeeRatePpm,
		CreatorFeeRatePpm: pool.Fees.CreatorFeeRatePpm,
		LastUpdatedSlot:   pool.LastUpdatedSlot,
	})
}
