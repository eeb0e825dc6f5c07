// Package services implements the driving ports: the review orchestrator
// that runs candidates through the filter chain and publishes survivors,
// and the feedback manager that maintains the reaction history the chain
// learns from.
package services
