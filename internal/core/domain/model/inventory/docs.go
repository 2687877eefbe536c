// Package inventory models warehouse stock: storage locations holding a product, the
// policy that splits a reservation across locations, and the reservation record that
// ties allocated quantities to an order.
package inventory
