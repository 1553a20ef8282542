// Package verify submits deployed contract sources to an Etherscan compatible verification
// service.
package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

const (
	// DefaultAPIURL is the Etherscan multichain endpoint. The chain is selected with the chainid
	// query parameter.
	DefaultAPIURL = "https://api.etherscan.io/v2/api"

	defaultPollAttempts = 10
	defaultPollDelay    = 5 * time.Second
)

var (
	errPending = errors.New("verification pending")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Request identifies the contract to verify.
type Request struct {
	Address      string
	ContractName string
	// ConstructorArgs are the textual constructor arguments the contract was deployed with.
	ConstructorArgs []string
}

// Config configures an EtherscanVerifier.
type Config struct {
	APIKey  string `validate:"required"`
	ChainID uint64 `validate:"required"`
	// APIURL defaults to DefaultAPIURL.
	APIURL string `validate:"omitempty,url"`
	// PollAttempts bounds the number of status checks after a submission.
	PollAttempts uint
	PollDelay    time.Duration
}

func (c Config) withDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = defaultPollAttempts
	}
	if c.PollDelay == 0 {
		c.PollDelay = defaultPollDelay
	}

	return c
}

// EtherscanVerifier verifies contract sources using the Etherscan API. Sources are submitted as
// standard JSON compiler input taken from the contract's build info.
type EtherscanVerifier struct {
	cfg    Config
	client *resty.Client
	loader contracts.BuildInfoLoader
	lggr   logger.Logger
}

// NewEtherscanVerifier creates a verifier.
func NewEtherscanVerifier(cfg Config, loader contracts.BuildInfoLoader, lggr logger.Logger) (*EtherscanVerifier, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid verifier config: %w", err)
	}
	if loader == nil {
		return nil, errors.New("artifact loader is required")
	}

	return &EtherscanVerifier{
		cfg:    cfg.withDefaults(),
		client: resty.New(),
		loader: loader,
		lggr:   lggr,
	}, nil
}

// apiResponse is the envelope of every Etherscan API response.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Verify submits the source of a deployed contract and waits for the service to accept it.
// A contract that is already verified counts as verified.
func (v *EtherscanVerifier) Verify(ctx context.Context, req Request) error {
	artifact, err := v.loader.Load(req.ContractName)
	if err != nil {
		return err
	}
	buildInfo, err := v.loader.BuildInfo(req.ContractName)
	if err != nil {
		return err
	}
	encodedArgs, err := artifact.EncodeConstructorArgs(req.ConstructorArgs)
	if err != nil {
		return fmt.Errorf("failed to encode constructor arguments: %w", err)
	}

	v.lggr.Infow("Verifying contract", "address", req.Address, "contract", artifact.FullyQualifiedName())

	resp, err := v.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetFormData(map[string]string{
			"apikey":                v.cfg.APIKey,
			"module":                "contract",
			"action":                "verifysourcecode",
			"contractaddress":       req.Address,
			"sourceCode":            string(buildInfo.Input),
			"codeformat":            "solidity-standard-json-input",
			"contractname":          artifact.FullyQualifiedName(),
			"compilerversion":       buildInfo.CompilerVersion(),
			"constructorArguements": hex.EncodeToString(encodedArgs),
		}).Post(v.cfg.APIURL)
	})
	if err != nil {
		return fmt.Errorf("failed to submit verification: %w", err)
	}

	if resp.Status != "1" {
		if isAlreadyVerified(resp.Result) {
			v.lggr.Infow("Contract is already verified", "address", req.Address)
			return nil
		}

		return fmt.Errorf("verification rejected: %s: %s", resp.Message, resp.Result)
	}

	return v.waitVerified(ctx, req.Address, resp.Result)
}

// waitVerified polls the verification status of a submission until it passes, fails or the
// attempts run out.
func (v *EtherscanVerifier) waitVerified(ctx context.Context, address, guid string) error {
	return retry.Do(func() error {
		resp, err := v.call(ctx, func(r *resty.Request) (*resty.Response, error) {
			return r.SetQueryParams(map[string]string{
				"apikey": v.cfg.APIKey,
				"module": "contract",
				"action": "checkverifystatus",
				"guid":   guid,
			}).Get(v.cfg.APIURL)
		})
		if err != nil {
			return err
		}

		switch {
		case strings.Contains(strings.ToLower(resp.Result), "pending"):
			return errPending
		case strings.HasPrefix(resp.Result, "Pass"), isAlreadyVerified(resp.Result):
			v.lggr.Infow("Contract verified", "address", address, "guid", guid)
			return nil
		default:
			return retry.Unrecoverable(fmt.Errorf("verification failed: %s", resp.Result))
		}
	},
		retry.Context(ctx),
		retry.Attempts(v.cfg.PollAttempts),
		retry.Delay(v.cfg.PollDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			v.lggr.Debugw("Waiting for verification", "guid", guid, "attempt", attempt+1, "err", err)
		}),
	)
}

// call sends a request built by do and decodes the API envelope.
func (v *EtherscanVerifier) call(
	ctx context.Context, do func(r *resty.Request) (*resty.Response, error),
) (apiResponse, error) {
	res, err := do(v.client.R().
		SetContext(ctx).
		SetQueryParam("chainid", strconv.FormatUint(v.cfg.ChainID, 10)))
	if err != nil {
		return apiResponse{}, err
	}
	if res.IsError() {
		return apiResponse{}, fmt.Errorf("unexpected status %s", res.Status())
	}

	var out apiResponse
	if err = json.Unmarshal(res.Body(), &out); err != nil {
		return apiResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return out, nil
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
