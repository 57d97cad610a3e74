package record

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wireVersion guards the on-wire layout so a future change can be
// detected rather than silently misparsed.
const wireVersion = uint8(1)

// Wire types are CBOR-array-encoded (`cbor:",toarray"`) rather than
// map-encoded: field order is fixed by struct declaration order, so two
// encodings of semantically equal values are always byte-identical
// without needing canonical map-key sorting. This is the same
// determinism requirement ContentBytes documents, now delegated to the
// codec's wire types instead of hand-rolled length-prefixed fields.
type wireName struct {
	_          struct{} `cbor:",toarray"`
	Components []string
}

type wireItem struct {
	_     struct{} `cbor:",toarray"`
	Tag   string
	Value []byte
}

type wireContent struct {
	_                struct{} `cbor:",toarray"`
	Version          uint8
	Type             uint8
	ProducerIdentity string
	Preceding        []wireName
	Payload          []wireItem
}

type wireRecord struct {
	_         struct{} `cbor:",toarray"`
	Content   wireContent
	Name      wireName
	Signature []byte
}

var encMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("record: building cbor encode mode: %v", err))
	}
	return mode
}()

func toWireName(n Name) wireName {
	return wireName{Components: n.Components()}
}

func fromWireName(w wireName) Name {
	return NewName(w.Components...)
}

func toWireContent(producerIdentity string, typ Type, preceding []Name, payload []Item) wireContent {
	wn := make([]wireName, len(preceding))
	for i, p := range preceding {
		wn[i] = toWireName(p)
	}
	wi := make([]wireItem, len(payload))
	for i, item := range payload {
		wi[i] = wireItem{Tag: item.Tag, Value: item.Value}
	}
	return wireContent{
		Version:          wireVersion,
		Type:             uint8(typ),
		ProducerIdentity: producerIdentity,
		Preceding:        wn,
		Payload:          wi,
	}
}

// encodeContent renders the portion of a record that is digested and
// signed: wire version, type, producer identity, preceding names and
// payload, in that order. Two calls with semantically equal inputs always produce
// byte-identical output.
func encodeContent(producerIdentity string, typ Type, preceding []Name, payload []Item) []byte {
	out, err := encMode.Marshal(toWireContent(producerIdentity, typ, preceding, payload))
	if err != nil {
		panic(fmt.Sprintf("record: encoding content: %v", err))
	}
	return out
}

// Encode serializes a full record (content plus name and signature) to
// its wire form. Two encodings of semantically equal records are
// byte-equal.
func Encode(r *Record) []byte {
	wr := wireRecord{
		Content:   toWireContent(r.ProducerIdentity, r.Type, r.Preceding, r.Payload),
		Name:      toWireName(r.Name),
		Signature: r.Signature,
	}
	out, err := encMode.Marshal(wr)
	if err != nil {
		panic(fmt.Sprintf("record: encoding record: %v", err))
	}
	return out
}

// Decode parses wire bytes into a Record, failing with
// ErrMalformedRecord on any structural violation.
func Decode(b []byte) (*Record, error) {
	var wr wireRecord
	if err := cbor.Unmarshal(b, &wr); err != nil {
		return nil, ErrMalformedRecord
	}
	if wr.Content.Version != wireVersion {
		return nil, ErrMalformedRecord
	}
	if wr.Content.Type > uint8(Genesis) {
		return nil, ErrMalformedRecord
	}
	typ := Type(wr.Content.Type)

	preceding := make([]Name, len(wr.Content.Preceding))
	for i, wn := range wr.Content.Preceding {
		preceding[i] = fromWireName(wn)
	}
	payload := make([]Item, len(wr.Content.Payload))
	for i, wi := range wr.Content.Payload {
		payload[i] = Item{Tag: wi.Tag, Value: wi.Value}
	}

	if typ != Genesis && len(preceding) == 0 {
		return nil, fmt.Errorf("record: %w: non-genesis record with no preceding references", ErrMalformedRecord)
	}
	if typ == Genesis && len(preceding) != 0 {
		return nil, fmt.Errorf("record: %w: genesis record must have no preceding references", ErrMalformedRecord)
	}

	return &Record{
		Name:             fromWireName(wr.Name),
		ProducerIdentity: wr.Content.ProducerIdentity,
		Type:             typ,
		Preceding:        preceding,
		Payload:          payload,
		Signature:        wr.Signature,
	}, nil
}
