package depot

import "time"

// Conventional TTLs for the market-data kinds the upstream provider
// clients cache. These are conventions for callers of Set and GetOrSet;
// the cache itself does not compute or enforce them.
const (
	// TTLQuote suits realtime quotes, which go stale quickly.
	TTLQuote = 5 * time.Minute

	// TTLNews suits headline feeds.
	TTLNews = time.Hour

	// TTLAnalysis suits computed analyst aggregates.
	TTLAnalysis = 4 * time.Hour

	// TTLFilings suits SEC filing indexes.
	TTLFilings = 6 * time.Hour

	// TTLFundamentals suits fundamentals snapshots, refreshed daily.
	TTLFundamentals = 24 * time.Hour

	// TTLHistorical suits historical OHLCV series, refreshed daily.
	TTLHistorical = 24 * time.Hour

	// TTLProfile suits company profiles, which rarely change.
	TTLProfile = 7 * 24 * time.Hour
)
