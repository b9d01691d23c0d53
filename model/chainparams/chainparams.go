package chainparams

import (
	"math/big"

	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/util"
)

// Checkpoint pins a known-good block hash at a given height;
// chain.Index.VerifyCheckpoints reports an error for any known entry that
// disagrees with one. Loading from the persistent store does not check them.
type Checkpoint struct {
	Height int32
	Hash   util.Hash
}

// ChainParams holds the consensus-parameter collaborator's inputs to this
// core: the network's proof-of-work ceiling, a minimum cumulative work below
// which a chain is not worth syncing, the genesis header itself, and the
// checkpoint list consulted by chain.Index.VerifyCheckpoints. Chain work is
// computed from each header's bits alone; PowLimit does not enter into it.
type ChainParams struct {
	Name             string
	PowLimit         *big.Int
	MinimumChainWork big.Int
	GenesisHeader    block.BlockHeader
	Checkpoints      []Checkpoint
}

var (
	bigOne = big.NewInt(1)
	// mainPowLimit is 2^224 - 1, mainnet's proof-of-work ceiling.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	// regTestPowLimit is 2^255 - 1, wide enough that any nonce satisfies it.
	regTestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

var MainNetParams = ChainParams{
	Name:          "main",
	PowLimit:      mainPowLimit,
	GenesisHeader: GenesisHeader,
	Checkpoints: []Checkpoint{
		{Height: 11111, Hash: *util.HashFromString("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{Height: 33333, Hash: *util.HashFromString("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
		{Height: 74000, Hash: *util.HashFromString("0000000000573993a3c9e41ce34471c079dcf5f52a0e824a81e7f953b8661a20")},
	},
}

var RegTestParams = ChainParams{
	Name:          "regtest",
	PowLimit:      regTestPowLimit,
	GenesisHeader: RegTestGenesisHeader,
}

// ActiveParams is the process-wide selected network; the design note on
// ambient globals applies to the header map and dirty set, not to this
// static table of consensus constants, so a package-level default mirrors
// how the rest of the ambient stack treats configuration.
var ActiveParams = &MainNetParams
