// Package serializer provides message serialization for the lock RPC system.
// It defines a common interface and multiple implementations for serializing
// and deserializing messages between client and server components.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format implementation optimized for speed
//     and space efficiency. A 16 bit flag field marks which fields are present,
//     so only those are encoded. Lock requests typically take well under 100 bytes.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding, offering
//     good compatibility with Go's type system but with larger serialized sizes.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for debugging
//     or interoperability with other systems, but with lower performance.
//
// Choosing a serializer:
//
//	Client and server must use the same serializer. Binary is the default of the
//	CLI and produces the smallest frames, a state response of a reader semaphore
//	grows by 12 bytes plus the id length per slot. JSON is readable on the wire,
//	which helps when debugging with the http transport. GOB is kept for
//	completeness; its per-message type descriptors make it the slowest option for
//	single messages.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Serializers are typically created once and reused throughout the application:
//
//	  serializer := serializer.NewBinarySerializer()
//	  data, err := serializer.Serialize(message)
//	  // ... send data ...
//	  var receivedMsg common.Message
//	  err = serializer.Deserialize(receivedData, &receivedMsg)
package serializer
