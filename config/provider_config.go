package config

// ProviderConfig configures one adapter registration. Family-specific
// fields are optional depending on Slug; unused ones are left zero.
type ProviderConfig struct {
	Slug    string `json:"slug"`
	Enabled bool   `json:"enabled"`

	// EVM-style (filecoin, greenfield)
	RPCEndpoint   string `json:"rpc_endpoint"`
	ChainID       int64  `json:"chain_id"`
	PrivateKeyHex string `json:"private_key_hex"`
	ContractAddr  string `json:"contract_addr"`
	ExplorerURL   string `json:"explorer_url"`
	Mode          string `json:"mode"` // "live" or "mock"

	// API-style (storj, lighthouse, akash)
	APIBaseURL string `json:"api_base_url"`
	GatewayURL string `json:"gateway_url"`
	APIKey     string `json:"api_key"`
}
