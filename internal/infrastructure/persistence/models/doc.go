// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: shared timestamp columns
// - item.go: catalog items with per-platform aliases
// - ledger.go: per-cell stock ledger
// - ordersync.go: processed orders, engine settings and shipment tallies
package models
