// Package messaging carries inventory notifications over Kafka.
//
// KafkaPublisher emits copy status changes from the authority and due-soon reminders from the rental
// ledger. StatusChangeConsumer lets the reservation ledger mark a reservation FULFILLED once the
// reserving user rented the copy. The W3C trace context travels in the message headers.
package messaging
