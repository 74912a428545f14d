// Package repository implements SurrealDB data access for the o2gather API.
//
// Each repository owns one table and exposes typed operations to the service
// layer. Queries use SurrealQL with bound variables; results come back as
// generic maps and are parsed with the helpers in helpers.go.
//
// # Repository Pattern
//
//   - Constructor function (NewXxxRepository) accepts a database.Database
//   - Lookups return (nil, nil) when the record does not exist; services
//     translate that into their own not-found errors
//   - Multi-statement writes that must be atomic go through
//     database.AtomicBatch or database.TxBuilder
//
// # The membership ledger
//
// MemberRepository.Upsert is the one write path with a cross-request
// ordering requirement: the upsert and the aggregate-cap re-check execute
// inside a single server-side transaction, and a THROW cancels both when
// the recomputed total exceeds the event's funding cap. See member.go.
package repository
