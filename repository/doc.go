// Package repository provides request-scoped repositories over Bun. Every
// repository batches point reads through a dataloader, memoizes them for its
// own lifetime and keeps that cache coherent with its writes. Lookups by a
// foreign key or by a composite natural key are batched the same way.
//
// Writes accept an optional *bun.Tx. A nil tx runs on the pool, or inside a
// transaction opened and committed by WithTx where several statements must
// succeed together.
package repository
