// Package storage is the root of the disk-based storage engine.
//
// Data is organised into fixed-size pages that are read and written as
// atomic units. The page size is chosen per engine instance (see
// heapstore/pkg/config) and passed explicitly to every file.
//
// # Sub-packages
//
//   - [heapstore/pkg/storage/page] – the Page contract, the PageStorage and
//     PageAccessor capability interfaces, and BaseFile, which maps page
//     numbers to byte offsets in a backing store.
//   - [heapstore/pkg/storage/heap] – heap files: an unordered collection of
//     fixed-width tuples in bitmap-headed slotted pages, with first-fit
//     insertion, append-only growth and a page-fault-driven scan iterator.
//
// # Capabilities
//
// A heap file and the buffer pool call each other. Neither depends on the
// other's concrete type: the file exposes PageStorage (raw read/write by page
// id) and consumes PageAccessor (get/release by transaction, page id and
// permission).
package storage
