// Package deploy orchestrates the raffle deployment: the mock coordinator on the local chain,
// the VRF subscription, and the Raffle contract itself.
//
// Deployment work is split into tagged steps executed by a Runner:
//
//	registry := deploy.NewRegistry()
//	registry.MustRegister(deploy.MocksStep, deploy.RaffleStep)
//
//	runner := deploy.NewRunner(registry, env)
//	err := runner.Run(ctx, deploy.TagAll)
//
// Steps talk to the chain through a Deployer, which deploys contracts from their compiled
// artifacts, records them in an artifact store and hands out contract handles.
package deploy
