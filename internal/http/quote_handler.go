package http

import (
	"context"
	"errors"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/cpmm-router/internal/aggregator"
	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/http/httputil"
	"github.com/hxuan190/cpmm-router/internal/services/router"
)

// Quoter is the part of the aggregator the quote endpoint needs.
type Quoter interface {
	Quote(ctx context.Context, params domain.QuoteParams) (*domain.QuoteOutcome, error)
	DefaultSlippageBps() uint16
}

type QuoteHandler struct {
	quoter Quoter
}

func NewQuoteHandler(quoter Quoter) *QuoteHandler {
	return &QuoteHandler{quoter: quoter}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	// Input token mint address (base58)
	InputMint string `form:"inputMint" binding:"required" example:"So11111111111111111111111111111111111111112"`

	// Output token mint address (base58)
	OutputMint string `form:"outputMint" binding:"required" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Amount in smallest token units. For ExactIn it is the input, for
	// ExactOut the desired output.
	Amount string `form:"amount" binding:"required" example:"1000000000"`

	// ExactIn or ExactOut. Default: ExactIn
	SwapMode string `form:"swapMode" enums:"ExactIn,ExactOut" example:"ExactIn"`

	// Slippage tolerance in basis points. Omitted means the server default.
	SlippageBps *uint16 `form:"slippageBps" example:"50"`
}

// RouteInfo describes one hop of the selected route
type RouteInfo struct {
	PoolAddress string `json:"poolAddress" example:"7JuwJuNU88gurFnyWeiyGKbFmExMWcmRZntn9imEzdny"`
	PoolType    string `json:"poolType" example:"CPMM"`
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	AmountIn    string `json:"amountIn" example:"1000000000"`
	AmountOut   string `json:"amountOut" example:"145320000"`

	// Fee charged by the pool in input token units
	FeeAmount      string `json:"feeAmount" example:"2500000"`
	PriceImpactBps uint16 `json:"priceImpactBps" example:"12"`

	// Slippage bound for this hop: minimum output for ExactIn, maximum input for ExactOut
	MinAmountOut string `json:"minAmountOut,omitempty" example:"144593400"`
	MaxAmountIn  string `json:"maxAmountIn,omitempty"`
}

// QuoteResponse contains the best route and its slippage bounds
type QuoteResponse struct {
	InputMint  string `json:"inputMint" example:"So11111111111111111111111111111111111111112"`
	OutputMint string `json:"outputMint" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`
	SwapMode   string `json:"swapMode" example:"ExactIn"`

	// Amounts in smallest token units
	AmountIn  string `json:"amountIn" example:"1000000000"`
	AmountOut string `json:"amountOut" example:"145320000"`

	// Amounts scaled by token decimals. Omitted when decimals are unknown.
	AmountInUI  string `json:"amountInUi,omitempty" example:"1"`
	AmountOutUI string `json:"amountOutUi,omitempty" example:"145.32"`

	// Minimum output (ExactIn) or maximum input (ExactOut) after slippage
	OtherAmountThreshold string `json:"otherAmountThreshold" example:"144593400"`
	SlippageBps          uint16 `json:"slippageBps" example:"50"`

	PriceImpactBps      uint16 `json:"priceImpactBps" example:"25"`
	PriceImpactPercent  string `json:"priceImpactPercent" example:"0.25%"`
	PriceImpactSeverity string `json:"priceImpactSeverity" enums:"none,low,moderate,high,extreme" example:"none"`
	PriceImpactWarning  string `json:"priceImpactWarning,omitempty"`

	Routes []RouteInfo `json:"routes"`

	// Mints visited by the route, input first
	RoutePath []string `json:"routePath"`
	HopCount  int      `json:"hopCount" example:"1"`

	PoolsConsidered int `json:"poolsConsidered" example:"12"`
	PathsEvaluated  int `json:"pathsEvaluated" example:"4"`
}

func parseQuoteRequest(req *QuoteRequest, defaultSlippage uint16) (domain.QuoteParams, *common.HttpError) {
	var params domain.QuoteParams

	inputMint, err := solana.PublicKeyFromBase58(req.InputMint)
	if err != nil {
		return params, common.HTTPErrorBadRequest("invalid inputMint address")
	}
	outputMint, err := solana.PublicKeyFromBase58(req.OutputMint)
	if err != nil {
		return params, common.HTTPErrorBadRequest("invalid outputMint address")
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return params, common.HTTPErrorBadRequest("invalid amount: must be a positive integer")
	}

	mode := domain.ExactIn
	if req.SwapMode != "" {
		if mode, err = domain.ParseSwapMode(req.SwapMode); err != nil {
			return params, common.HTTPErrorBadRequest("invalid swapMode: must be ExactIn or ExactOut")
		}
	}

	slippage := defaultSlippage
	if req.SlippageBps != nil {
		slippage = *req.SlippageBps
	}

	return domain.QuoteParams{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      amount,
		Mode:        mode,
		SlippageBps: slippage,
	}, nil
}

func quoteErrorToHTTP(err error) *common.HttpError {
	switch {
	case errors.Is(err, aggregator.ErrInvalidParams), errors.Is(err, aggregator.ErrSlippageTooLarge):
		return common.HTTPErrorBadRequest(err.Error())
	case errors.Is(err, aggregator.ErrNoRoute):
		return common.HTTPErrorNotFound("no route found")
	case errors.Is(err, context.DeadlineExceeded):
		return common.HTTPErrorGatewayTimeout("pool state read timed out")
	default:
		return common.HTTPErrorInternalError("failed to compute quote")
	}
}

func buildQuoteResponse(outcome *domain.QuoteOutcome) QuoteResponse {
	quote := outcome.Quote
	bounded := outcome.Bounded

	routes := make([]RouteInfo, 0, len(bounded.Hops))
	for _, hop := range bounded.Hops {
		info := RouteInfo{
			InputMint:      hop.InputMint.String(),
			OutputMint:     hop.OutputMint.String(),
			AmountIn:       intString(hop.AmountIn),
			AmountOut:      intString(hop.AmountOut),
			FeeAmount:      intString(hop.FeeAmount),
			PriceImpactBps: hop.PriceImpactBps,
			MinAmountOut:   intString(hop.MinAmountOut),
			MaxAmountIn:    intString(hop.MaxAmountIn),
		}
		if hop.Pool != nil {
			info.PoolAddress = hop.Pool.Address.String()
			info.PoolType = hop.Pool.Type.String()
		}
		routes = append(routes, info)
	}

	tokenPath := quote.TokenPath()
	routePath := make([]string, 0, len(tokenPath))
	for _, mint := range tokenPath {
		routePath = append(routePath, mint.String())
	}

	return QuoteResponse{
		InputMint:            quote.InputMint.String(),
		OutputMint:           quote.OutputMint.String(),
		SwapMode:             quote.Mode.String(),
		AmountIn:             intString(quote.TotalAmountIn),
		AmountOut:            intString(quote.TotalAmountOut),
		AmountInUI:           uiAmount(quote.TotalAmountIn, outcome.InputToken),
		AmountOutUI:          uiAmount(quote.TotalAmountOut, outcome.OutputToken),
		OtherAmountThreshold: intString(bounded.OtherAmountThreshold()),
		SlippageBps:          bounded.SlippageBps,
		PriceImpactBps:       quote.PriceImpactBps,
		PriceImpactPercent:   decimal.New(int64(quote.PriceImpactBps), -2).StringFixed(2) + "%",
		PriceImpactSeverity:  string(router.GetPriceImpactSeverity(quote.PriceImpactBps)),
		PriceImpactWarning:   router.GetPriceImpactWarning(quote.PriceImpactBps),
		Routes:               routes,
		RoutePath:            routePath,
		HopCount:             len(quote.Hops),
		PoolsConsidered:      outcome.PoolsConsidered,
		PathsEvaluated:       outcome.PathsEvaluated,
	}
}

// uiAmount scales a raw amount by the token's decimals. Empty when the
// metadata was not resolved.
func uiAmount(amount *big.Int, meta domain.TokenMetadata) string {
	if amount == nil || meta.Mint.IsZero() {
		return ""
	}
	return decimal.NewFromBigInt(amount, -int32(meta.Decimals)).String()
}

func intString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// @Summary Get swap quote
// @Description Finds the best route of up to the configured number of hops across the tracked
// @Description constant-product pools. Pool reserves are read fresh for every request.
// @Description
// @Description **Amount Format:** smallest token units. ExactIn fixes the input, ExactOut the output.
// @Description
// @Description **otherAmountThreshold:** minimum output for ExactIn, maximum input for ExactOut,
// @Description after applying slippageBps.
// @Tags quote
// @Produce json
// @Param inputMint query string true "Input token mint address (base58)"
// @Param outputMint query string true "Output token mint address (base58)"
// @Param amount query string true "Amount in smallest token units"
// @Param swapMode query string false "Swap mode" Enums(ExactIn, ExactOut) default(ExactIn)
// @Param slippageBps query int false "Slippage tolerance in basis points" default(50)
// @Success 200 {object} httputil.Response{data=QuoteResponse} "Best route with slippage bounds"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "No route found between the token pair"
// @Failure 504 {object} httputil.Response "Pool state read timed out"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	params, httpErr := parseQuoteRequest(&req, h.quoter.DefaultSlippageBps())
	if httpErr != nil {
		httputil.Fail(c, httpErr)
		return
	}

	outcome, err := h.quoter.Quote(c.Request.Context(), params)
	if err != nil {
		httputil.Fail(c, quoteErrorToHTTP(err))
		return
	}

	httputil.Success(c, buildQuoteResponse(outcome))
}
