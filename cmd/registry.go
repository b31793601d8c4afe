package cmd

import (
	"fmt"

	"github.com/vaultmesh/checkout/config"
	"github.com/vaultmesh/checkout/provider"
	"github.com/vaultmesh/checkout/provider/apiadapter"
	"github.com/vaultmesh/checkout/provider/evm"
)

// BuildRegistry constructs a provider.Registry from config entries,
// dispatching each slug to its adapter family. Both cmd/api and
// cmd/worker share this so the two binaries never drift on which
// slug maps to which adapter constructor.
func BuildRegistry(cfgs []config.ProviderConfig) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	for _, c := range cfgs {
		if !c.Enabled {
			continue
		}

		a, err := buildAdapter(c)
		if err != nil {
			return nil, fmt.Errorf("build adapter %q: %w", c.Slug, err)
		}

		reg.Register(a)
	}

	return reg, nil
}

func buildAdapter(c config.ProviderConfig) (provider.Adapter, error) {
	switch c.Slug {
	case "storj":
		return apiadapter.NewStorj(apiadapter.StorjConfig{
			APIBaseURL: c.APIBaseURL,
			GatewayURL: c.GatewayURL,
			APIKey:     c.APIKey,
		}), nil
	case "lighthouse":
		return apiadapter.NewLighthouse(apiadapter.LighthouseConfig{
			APIBaseURL: c.APIBaseURL,
			GatewayURL: c.GatewayURL,
			APIKey:     c.APIKey,
		}), nil
	case "akash":
		return apiadapter.NewAkash(apiadapter.AkashConfig{
			LCDBaseURL: c.APIBaseURL,
			APIKey:     c.APIKey,
		}), nil
	case "filecoin":
		return evm.NewFilecoin(evmConfig(c), c.ExplorerURL), nil
	case "greenfield":
		return evm.NewGreenfield(evmConfig(c), c.ExplorerURL), nil
	default:
		return nil, fmt.Errorf("unknown provider slug %q", c.Slug)
	}
}

func evmConfig(c config.ProviderConfig) evm.Config {
	mode := evm.ModeLive
	if c.Mode == string(evm.ModeMock) {
		mode = evm.ModeMock
	}

	return evm.Config{
		RPCEndpoint:   c.RPCEndpoint,
		ChainID:       c.ChainID,
		PrivateKeyHex: c.PrivateKeyHex,
		ContractAddr:  c.ContractAddr,
		Mode:          mode,
	}
}
