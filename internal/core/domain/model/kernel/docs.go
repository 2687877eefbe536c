// Package kernel provides the shared value objects of the fulfillment domain model.
//
// The package includes:
//   - UUID: identifier for orders, customers and storage locations
//   - Address: immutable delivery address attached to an order at creation time
//
// Both are immutable and validated on construction; their zero values fail Validate,
// so a value that skipped its constructor is detected wherever it is used.
package kernel
