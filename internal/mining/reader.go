package mining

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lpYield/internal/chain"
	"lpYield/internal/model"
)

const defaultConcurrency = 8

// ContractCaller executes read-only contract calls. chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader reads reward indicators from a liquidity mining contract.
type Reader struct {
	caller      ContractCaller
	concurrency int
	logger      *zap.Logger
}

// NewReader builds a Reader. concurrency bounds the number of in-flight
// getPoolPowerUpModifiers calls; values below one fall back to a default.
func NewReader(caller ContractCaller, concurrency int, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Reader{
		caller:      caller,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GlobalIndicators reads the reward indicators of every LP token in a single
// call. The result is keyed by the lower-cased LP token returned by the contract.
func (r *Reader) GlobalIndicators(ctx context.Context, contract common.Address, lpTokens []common.Address) (map[string]model.GlobalIndicators, error) {
	out := make(map[string]model.GlobalIndicators, len(lpTokens))
	if len(lpTokens) == 0 {
		return out, nil
	}

	values, err := r.call(ctx, contract, methodGlobalIndicators, lpTokens)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d: %w", methodGlobalIndicators, len(values), model.ErrMalformedPayload)
	}

	results, err := convertIndicators(values[0])
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		out[chain.AddressKey(res.LpToken.Hex())] = model.GlobalIndicators{
			LpToken:                                res.LpToken,
			AggregatedPowerUp:                      bigOrZero(res.Indicators.AggregatedPowerUp),
			CompositeMultiplierInTheBlock:          bigOrZero(res.Indicators.CompositeMultiplierInTheBlock),
			CompositeMultiplierCumulativePrevBlock: bigOrZero(res.Indicators.CompositeMultiplierCumulativePrevBlock),
			BlockNumber:                            res.Indicators.BlockNumber,
			RewardsPerBlock:                        res.Indicators.RewardsPerBlock,
			AccruedRewards:                         bigOrZero(res.Indicators.AccruedRewards),
		}
	}

	r.logger.Debug("global indicators loaded",
		zap.String("contract", contract.Hex()),
		zap.Int("requested", len(lpTokens)),
		zap.Int("returned", len(out)),
	)

	return out, nil
}

// PowerUpModifiers reads the power-up curve of each LP token, one call per
// token. The result is keyed by the lower-cased requested LP token.
func (r *Reader) PowerUpModifiers(ctx context.Context, contract common.Address, lpTokens []common.Address) (map[string]model.PowerUpModifier, error) {
	results := make([]model.PowerUpModifier, len(lpTokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, lpToken := range lpTokens {
		i, lpToken := i, lpToken
		g.Go(func() error {
			modifier, err := r.powerUpModifier(gctx, contract, lpToken)
			if err != nil {
				return err
			}
			results[i] = modifier
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]model.PowerUpModifier, len(results))
	for _, modifier := range results {
		out[chain.AddressKey(modifier.LpToken.Hex())] = modifier
	}
	return out, nil
}

func (r *Reader) powerUpModifier(ctx context.Context, contract, lpToken common.Address) (model.PowerUpModifier, error) {
	values, err := r.call(ctx, contract, methodPowerUpModifiers, lpToken)
	if err != nil {
		return model.PowerUpModifier{}, fmt.Errorf("lp token %s: %w", lpToken.Hex(), err)
	}
	if len(values) != 3 {
		return model.PowerUpModifier{}, fmt.Errorf("%s return size %d: %w", methodPowerUpModifiers, len(values), model.ErrMalformedPayload)
	}

	pwTokenModifier, err := asBigInt(values[0])
	if err != nil {
		return model.PowerUpModifier{}, fmt.Errorf("pw token modifier: %w", err)
	}
	logBase, err := asBigInt(values[1])
	if err != nil {
		return model.PowerUpModifier{}, fmt.Errorf("log base: %w", err)
	}
	vectorOfCurve, err := asBigInt(values[2])
	if err != nil {
		return model.PowerUpModifier{}, fmt.Errorf("vector of curve: %w", err)
	}

	return model.PowerUpModifier{
		LpToken:         lpToken,
		PwTokenModifier: pwTokenModifier,
		LogBase:         logBase,
		VectorOfCurve:   vectorOfCurve,
	}, nil
}

func (r *Reader) call(ctx context.Context, contract common.Address, method string, args ...interface{}) ([]interface{}, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}

	parsed, err := LiquidityMiningABI()
	if err != nil {
		return nil, fmt.Errorf("parse liquidity mining abi: %w", err)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w: %w", method, model.ErrNetwork, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w: %w", method, model.ErrMalformedPayload, err)
	}
	return values, nil
}

func convertIndicators(value interface{}) (results []globalIndicatorsResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("convert %s output %T: %w", methodGlobalIndicators, value, model.ErrMalformedPayload)
		}
	}()
	results = *abi.ConvertType(value, new([]globalIndicatorsResult)).(*[]globalIndicatorsResult)
	return results, nil
}
