// Package services holds the domain services of the fulfillment core: the storage
// ledger that reserves and releases stock per product, the reservation allocator that
// makes reservations all-or-nothing per order, the stage action registry and the
// transition engine that drives orders through their lifecycle.
//
// Services never open transactions themselves. Callers hand them repositories bound to
// a unit of work and commit or roll back afterwards.
package services
