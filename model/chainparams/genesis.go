package chainparams

import (
	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/util"
)

// genesisMerkleRoot is the well-known mainnet genesis coinbase's merkle
// root; the index core treats it as an opaque header field, never a
// transaction to parse.
var genesisMerkleRoot = *util.HashFromString("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")

// GenesisHeader is the mainnet genesis block header. A loader seeds the
// header map with the entry built from this header when the persistent
// store is empty.
var GenesisHeader = block.BlockHeader{
	Version:       1,
	HashPrevBlock: util.HashZero,
	MerkleRoot:    genesisMerkleRoot,
	Time:          1231006505, // 2009-01-03 18:15:05 UTC
	Bits:          0x1d00ffff,
	Nonce:         2083236893,
}

// RegTestGenesisHeader is a minimum-difficulty genesis used by the regtest
// network, where PowLimit is wide enough that any nonce satisfies it.
var RegTestGenesisHeader = block.BlockHeader{
	Version:       1,
	HashPrevBlock: util.HashZero,
	MerkleRoot:    genesisMerkleRoot,
	Time:          1296688602,
	Bits:          0x207fffff,
	Nonce:         2,
}
