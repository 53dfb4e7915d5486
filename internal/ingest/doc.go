// Package ingest defines the core types and capability interfaces shared by
// every stage of the partner data-ingestion pipeline: the daily request
// scheduler, the webhook gateway, the file ingestor, the ETL worker pool, and
// the health monitor. Implementations of the interfaces live in sibling
// packages (memory, gcs, postgres, pubsub); this package stays free of
// third-party dependencies.
package ingest
