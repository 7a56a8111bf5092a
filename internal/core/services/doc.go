// Package services implements the driving ports: the ingestion
// coordinator, the extraction orchestrator and the document service.
// Services depend only on domain types and driven port interfaces.
package services
