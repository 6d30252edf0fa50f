// Package core provides the business logic for schema reconciliation.
//
// This package is the heart of the reconciliation engine, containing all
// domain logic independent of any transport or storage layer. It can be
// used by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Schema Definitions: Registered via the registry, each canonical schema
//     has field specs, alias tables, and value normalizers.
//   - Detection: Locates the tabular region inside an arbitrary spreadsheet
//     grid (title rows, blank padding, and footer junk included).
//   - Matching: Scores discovered column headers against canonical fields
//     across four tiers, historical rules first.
//   - Sessions: Track the human resolution of every column from detection
//     through finalize.
//   - Mapping Rules: Confirmed header-to-field pairs persisted per schema,
//     so the next file from the same vendor matches automatically.
//   - Service: The main entry point for all operations (sessions, rules,
//     queries, maintenance).
//
// # Schema Registry
//
// Schemas are registered at init time using [Register]. Each
// [SchemaDefinition] describes one canonical shape vendor files are
// reconciled against:
//
//	core.Register(SchemaDefinition{
//	    Info: SchemaInfo{Key: "billing", Group: "Finance", Label: "Billing"},
//	    Fields: []FieldSpec{
//	        {Name: "customer_name", Required: true, Type: FieldText},
//	        {Name: "amount", Type: FieldNumeric},
//	    },
//	    Aliases: map[string]string{"Cust Name": "customer_name"},
//	})
//
// # Reconciliation Flow
//
// A session carries one vendor file from raw grid to confirmed mapping:
//
//  1. Client calls [Service.StartSession] with a parsed [RawGrid]
//  2. [DetectTable] locates the header row and data range
//  3. [ExtractCandidates] pulls per-column headers and sample values
//  4. [Match] ranks proposals per column: rules, exact, alias, fuzzy
//  5. A person confirms, rejects, or skips columns until none need review
//  6. [Service.FinalizeSession] persists rules and hands the typed rows
//     to the configured [Loader]
//
// Matching degrades instead of failing when the rule store is unreachable;
// the session is flagged and resolution proceeds without history.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DET001-DET003: Detection errors (no table, too little data)
//   - MAT001: Matching errors
//   - RES001-RES005, SES001-SES003: Resolution and session state errors
//   - RUL001: Mapping rule errors
//   - DB001-DB006: Database errors (duplicates, constraints, connections)
//   - FILE001-FILE007: File errors (size, encoding, format)
//   - REQ001-REQ002, RATE001: Request shape and rate limit errors
//
// # Session Lifecycle
//
// Sessions move through a strict state machine: detecting, awaiting
// resolution, finalized or abandoned. Terminal sessions reject every
// mutation with a [StateError]. Finalize is transactional; rule upserts,
// the session document, and the audit event land or roll back together.
package core
