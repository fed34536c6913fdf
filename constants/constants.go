package constants

const TS_FORMAT = "2006-01-02T15:04:05.000Z07:00"

// Pairs the agent watches when no assets are configured, mirroring the
// backend's popular-assets list.
var DEFAULT_BASES = [...]string{"btc", "eth", "bnb", "xrp", "ada",
	"doge", "sol", "matic", "dot", "avax"}

const USD = "USD"
const USDT = "USDT"
const USDC = "USDC"

var USDT_USDC = [...]string{USDT, USDC}

type AssetList []string

// Entries of the shared state directory. Several agent processes may point at
// the same directory; the flag file is how they coordinate token refresh.
const (
	AuthStateFile   = "cryptics_auth.json"
	RefreshFlagFile = "refresh_in_progress"
)

// The backend returns rotated refresh tokens in the response body (instead of
// an httpOnly cookie) when this header is present.
const ClientTypeHeader = "X-Client-Type"
const ClientTypeNative = "mobile"
