package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Message types are encoded by name, e.g. "acquireWriter".
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Deserialize resets msg first, json.Unmarshal alone would keep fields that are absent in b
func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	return json.Unmarshal(b, msg)
}
