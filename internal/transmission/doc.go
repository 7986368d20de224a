// Package transmission coordinates transmitting every member of a record
// collection concurrently. Member transmissions are independent tasks over
// a bounded worker pool; one member's failure never cancels its siblings.
// After all members finish, the orchestrator either reports full success
// or an AggregateError naming every failed member with its cause, while
// durable members stay resolvable.
package transmission
