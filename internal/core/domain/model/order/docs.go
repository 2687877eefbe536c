// Package order contains the Order aggregate and its lifecycle state machine.
//
// An order is created in Initialized and moves through payment, picking, packing and
// delivery until it reaches one of the terminal statuses Delivered or Cancelled. The
// allowed moves live in a single transition table (see Status.NextStatuses); nothing
// else decides whether a status change is legal.
//
// The package includes:
//   - Order: aggregate root holding lines, address, metadata and the stage history
//   - Status: the lifecycle enumeration and its transition table
//   - Transition: a from/to pair already checked against the table
//   - StageRecord: one immutable entry of the stage history
//   - Line: one product entry with SKU, unit price and quantity
//   - StageEntered: domain event raised for each appended stage
//
// The current status is never stored separately from the history; it is always the
// status of the last stage record.
package order
