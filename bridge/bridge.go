package bridge

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"gojedibridge/types"
)

// TokenLedger is the token collaborator: debit burns or locks, credit mints.
type TokenLedger interface {
	Debit(token, holder common.Address, amount *uint256.Int) error
	Credit(token, holder common.Address, amount *uint256.Int) error
}

type Config struct {
	ChainID   uint64
	Address   common.Address // the bridge's own address, the one allowed to mint/burn
	Owner     common.Address // administrative principal
	Validator common.Address // the only trusted attestation signer
}

// RedeemedEvent confirms that an attestation was honored.
type RedeemedEvent struct {
	Record types.SwapRecord
	Digest common.Hash
}

// Bridge is one chain deployment of the bridge. All state-mutating calls are
// serialised, as transactions are on a chain, so a swap's read-and-increment
// of the nonce and a redeem's check-then-mint are each a single step.
type Bridge struct {
	cfg    Config
	store  Store
	tokens TokenLedger
	log    *zap.SugaredLogger

	mu sync.Mutex

	swapFeed   event.Feed
	redeemFeed event.Feed
}

func New(cfg Config, store Store, tokens TokenLedger, logger *zap.SugaredLogger) *Bridge {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bridge{
		cfg:    cfg,
		store:  store,
		tokens: tokens,
		log:    logger.With("chain", cfg.ChainID),
	}
}

func (b *Bridge) ChainID() uint64            { return b.cfg.ChainID }
func (b *Bridge) Address() common.Address   { return b.cfg.Address }
func (b *Bridge) Owner() common.Address     { return b.cfg.Owner }
func (b *Bridge) Validator() common.Address { return b.cfg.Validator }

// SubscribeSwaps delivers every SwapInitialized record to ch.
func (b *Bridge) SubscribeSwaps(ch chan<- *types.SwapRecord) event.Subscription {
	return b.swapFeed.Subscribe(ch)
}

// SubscribeRedeemed delivers every successful redemption to ch.
func (b *Bridge) SubscribeRedeemed(ch chan<- *RedeemedEvent) event.Subscription {
	return b.redeemFeed.Subscribe(ch)
}

// NextNonce is the nonce the next successful swap gets.
func (b *Bridge) NextNonce() (uint64, error) {
	return b.store.NextNonce()
}

// SwapByNonce reads the append-only swap log.
func (b *Bridge) SwapByNonce(nonce uint64) (*types.SwapRecord, error) {
	return b.store.SwapByNonce(nonce)
}

func (b *Bridge) IsRedeemed(digest common.Hash) (bool, error) {
	return b.store.IsConsumed(digest)
}
