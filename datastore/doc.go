// Package datastore stores the artifacts of deployed contracts: their address, ABI, deployment
// receipt and constructor arguments.
//
// The MemoryArtifactStore holds the artifacts of a single run and backs the in-process network.
// The FileArtifactStore persists them under deployments/<network>/ so that later runs against a
// persistent network can find and reuse earlier deployments.
package datastore
