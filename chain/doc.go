/*
Package chain provides access to the EVM chains the raffle deployment runs against.

A chain is obtained from a Provider. The simulated provider runs an in-process chain that stands
in for the ephemeral development network, and the RPC provider connects to a live node:

	p := provider.NewSimChainProvider(provider.SimChainProviderConfig{})
	defer p.Close()

	c, err := p.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize %s: %w", p.Name(), err)
	}

	deployer, err := c.Account(evm.AccountDeployer)

Every chain exposes its named accounts and a confirm function that waits for a transaction to be
mined with the requested number of confirmations.
*/
package chain
