package zmqtransport

import "encoding/json"

// encodeFrame/decodeFrame use JSON, matching the teacher's
// utils/transport wire format (cmd/consensus/zmq.go's ZMQMessage).
// Record payload bytes themselves still use dledger's own compact
// binary codec (record.Encode/Decode); JSON only wraps them for
// transport framing.
func encodeFrame(f frame) ([]byte, error) {
	return json.Marshal(f)
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	err := json.Unmarshal(data, &f)
	return f, err
}
