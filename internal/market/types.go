package market

// PoolReference is the immutable identity of an AMM pool, captured once at
// discovery time.
type PoolReference struct {
	PoolID       string // pool account address
	BaseMint     string // mint of the asset being traded
	MarketID     string // serum/openbook market backing the pool
	BaseDecimals uint8
	Version      int // AMM program version (4 or 5)
}

// PoolKeys extends a PoolReference with the resolved accounts needed to
// build swap instructions. Resolved lazily from the caches.
type PoolKeys struct {
	PoolReference

	QuoteMint        string
	Authority        string
	BaseVault        string
	QuoteVault       string
	OpenOrders       string
	TargetOrders     string
	MarketProgramID  string
	MarketBids       string
	MarketAsks       string
	MarketEventQueue string
	MarketBaseVault  string
	MarketQuoteVault string
}

// QuoteAsset describes the quote side of every position (typically WSOL).
type QuoteAsset struct {
	Mint     string
	Decimals uint8
	Symbol   string
}
