// Package ordersync holds the bookkeeping that makes order ingestion
// idempotent and incremental: the processed-order set, per-platform poll
// cursors and the daily shipment tally, plus the run report types returned
// to schedulers and dashboards.
package ordersync
