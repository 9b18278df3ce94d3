package serializer

import (
	"testing"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	slots := make([]common.Slot, 64)
	for i := range slots {
		slots[i] = common.Slot{ID: "0b9f5c2e-7a43-4a4e-9c1f-1d7f1a2b3c4d", Expiration: 1735689600000000000}
	}

	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"StateRequest": {
			MsgType: common.MsgTSLState,
			Key:     "k",
		},
		"AcquireWriter": {
			MsgType: common.MsgTSLAcquireWriter,
			Key:     "medium-length-key-for-testing",
			LockID:  "0b9f5c2e-7a43-4a4e-9c1f-1d7f1a2b3c4d",
			TTL:     30000,
		},
		"AcquireReader": {
			MsgType: common.MsgTSLAcquireReader,
			Key:     "medium-length-key-for-testing",
			LockID:  "0b9f5c2e-7a43-4a4e-9c1f-1d7f1a2b3c4d",
			Limit:   16,
			TTL:     30000,
		},
		"OkResponse": {
			MsgType: common.MsgTSLAcquireWriter,
			Ok:      true,
		},
		"WriterState": {
			MsgType:    common.MsgTSLState,
			Mode:       common.ModeWriter,
			Owner:      "0b9f5c2e-7a43-4a4e-9c1f-1d7f1a2b3c4d",
			Expiration: 1735689600000000000,
		},
		"ReaderStateLarge": {
			MsgType: common.MsgTSLState,
			Mode:    common.ModeReader,
			Limit:   64,
			Slots:   slots,
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				b.ReportMetric(float64(len(data)), "bytes")

				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
