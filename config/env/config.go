// Package env loads the process environment configuration: RPC endpoints, signer secrets and
// API keys. Values come from environment variables, with an optional .env file providing the
// ones that are not set.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/raffle-labs/raffle-deployments/config"
	"github.com/raffle-labs/raffle-deployments/config/network"
)

// Config is the environment configuration.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type Config struct {
	MainnetRPCURL       string `mapstructure:"mainnet_rpc_url" validate:"omitempty,url"`
	SepoliaRPCURL       string `mapstructure:"sepolia_rpc_url" validate:"omitempty,url"`
	AvalancheFujiRPCURL string `mapstructure:"avalanche_fuji_rpc_url" validate:"omitempty,url"`
	PrivateKey          string `mapstructure:"private_key"` // Secret: hex private key of the deployer account
	Mnemonic            string `mapstructure:"mnemonic"`    // Secret: BIP-39 mnemonic the named accounts are derived from
	EtherscanAPIKey     string `mapstructure:"etherscan_api_key"`
	CoinMarketCapAPIKey string `mapstructure:"coinmarketcap_api_key"`
	ReportGas           bool   `mapstructure:"report_gas"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// envBindings maps each config key to the environment variables that can provide its value.
// Viper checks them in order and uses the first one that is set.
var envBindings = map[string][]string{
	"mainnet_rpc_url":        {"MAINNET_RPC_URL"},
	"sepolia_rpc_url":        {"SEPOLIA_RPC_URL"},
	"avalanche_fuji_rpc_url": {"AVALANCHE_FUJI_RPC_URL"},
	"private_key":            {"PRIVATE_KEY"},
	"mnemonic":               {"MNEMONIC"},
	"etherscan_api_key":      {"ETHERSCAN_API_KEY"},
	"coinmarketcap_api_key":  {"COINMARKETCAP_API_KEY"},
	"report_gas":             {"REPORT_GAS"},
}

// Load loads the config from the environment variables. If dotenvPath names an existing file,
// its values are used for the variables the process environment does not set.
func Load(dotenvPath string) (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); !errors.Is(err, fs.ErrNotExist) {
			if err := setDotenvDefaults(v, dotenvPath); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid env config: %w", err)
	}

	return cfg, nil
}

// LoadEnv loads the config from the environment variables only.
func LoadEnv() (*Config, error) {
	return Load("")
}

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}

// setDotenvDefaults reads a .env file and registers its known variables as viper defaults, so
// that variables set in the process environment take precedence.
func setDotenvDefaults(v *viper.Viper, path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read dotenv file: %w", err)
	}

	for key, envs := range envBindings {
		for _, name := range envs {
			if val, ok := values[name]; ok {
				v.SetDefault(key, val)
				break
			}
		}
	}

	return nil
}

// RPCURL returns the value of one of the RPC endpoint variables by its environment variable
// name. Unknown names return an empty string.
func (c Config) RPCURL(envVar string) string {
	switch envVar {
	case "MAINNET_RPC_URL":
		return c.MainnetRPCURL
	case "SEPOLIA_RPC_URL":
		return c.SepoliaRPCURL
	case "AVALANCHE_FUJI_RPC_URL":
		return c.AvalancheFujiRPCURL
	default:
		return ""
	}
}

// Endpoint returns the RPC endpoint of the network, from its literal URL or the environment.
func (c Config) Endpoint(net network.Network) string {
	if net.URL != "" {
		return net.URL
	}

	return c.RPCURL(net.URLEnv)
}

// HasSigner reports whether a private key or a mnemonic is configured.
func (c Config) HasSigner() bool {
	return c.PrivateKey != "" || c.Mnemonic != ""
}

// Require checks that every value needed to deploy to net is present, and reports all the
// missing ones at once. The in-process network requires nothing; a local node falls back to the
// development mnemonic.
func (c Config) Require(net network.Network) error {
	if net.InProcess() {
		return nil
	}

	var errs []error
	if c.Endpoint(net) == "" {
		errs = append(errs, config.NewConfigurationError(net.URLEnv,
			"environment variable %s is not set, it is required for network %s", net.URLEnv, net.Name,
		))
	}

	if !net.IsDevelopment() && !c.HasSigner() {
		errs = append(errs, config.NewConfigurationError("PRIVATE_KEY",
			"environment variable PRIVATE_KEY or MNEMONIC is required for network %s", net.Name,
		))
	}

	return errors.Join(errs...)
}
