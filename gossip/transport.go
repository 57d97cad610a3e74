// Package gossip implements the Gossip Protocol (GP): the three
// named-data message shapes (NOTIF, SYNC, FETCH) that drive discovery of
// unknown records and convergence between peers. Grounded on the
// teacher's utils/transport (Message/Handler/MessageType shape) and
// networking/router dispatch pattern, adapted from node-addressed
// messages to named-data interests.
package gossip

import (
	"github.com/luxfi/dledger/internal/xset"
	"github.com/luxfi/dledger/record"
)

// Transport is the named-data transport contract (spec.md §6): express
// interest in a name and be called back with its data, register a filter
// to be called back on matching incoming interests, publish data, and
// pump the event loop. A concrete adapter (zmqtransport) stands in for
// the original NDN forwarder.
type Transport interface {
	// ExpressInterest requests the data named by name. onData is called
	// at most once, when data bearing that name arrives.
	ExpressInterest(name record.Name, onData func(data []byte)) error
	// SetInterestFilter registers onInterest to be called whenever an
	// incoming interest name has prefix as a prefix. Multiple filters
	// with distinct prefixes may be registered.
	SetInterestFilter(prefix record.Name, onInterest func(name record.Name)) error
	// Put publishes data under name, satisfying any outstanding interest
	// for it and caching it against future interests.
	Put(name record.Name, data []byte) error
	// ProcessEvents pumps pending transport I/O once. Peer.Run calls this
	// on its pump ticker, every processPumpInterval.
	ProcessEvents() error
}

const (
	notifComponent = "NOTIF"
	syncComponent  = "SYNC"
)

// NotifName builds the NOTIF interest name for a newly admitted record
// (spec.md §4.5: "<mcPrefix>/NOTIF/<producerSuffix>/<digest>").
func NotifName(mcPrefix string, rec *record.Record) record.Name {
	return record.NewName(mcPrefix, notifComponent, rec.ProducerIdentity, rec.Name.Digest())
}

// IsNotifName reports whether n has the NOTIF shape under mcPrefix and,
// if so, returns the record name it announces.
func IsNotifName(mcPrefix string, n record.Name) (record.Name, bool) {
	if n.Len() != 4 || n.Component(0) != mcPrefix || n.Component(1) != notifComponent {
		return record.Name{}, false
	}
	return record.NewName(mcPrefix, n.Component(2), n.Component(3)), true
}

// SyncName builds a SYNC interest name carrying the given tip names
// (spec.md §4.5: "<mcPrefix>/SYNC/<tip1>/<tip2>/…"). Each tip contributes
// its producer identity and digest components, flattened into the SYNC
// name's trailing components. Tips are ordered by their string form
// before being flattened, via xset.SortedList, so two peers holding the
// same tip set in different internal orders emit byte-identical SYNC
// names.
func SyncName(mcPrefix string, tips []record.Name) record.Name {
	keys := xset.New[string](len(tips))
	for _, t := range tips {
		keys.Add(t.String())
	}
	sorted := xset.SortedList(keys, func(a, b string) bool { return a < b })

	components := make([]string, 0, 2+2*len(sorted))
	components = append(components, mcPrefix, syncComponent)
	for _, k := range sorted {
		t := record.ParseName(k)
		components = append(components, t.ProducerIdentity(), t.Digest())
	}
	return record.NewName(components...)
}

// IsSyncName reports whether n has the SYNC shape under mcPrefix and, if
// so, returns the carried tip names.
func IsSyncName(mcPrefix string, n record.Name) ([]record.Name, bool) {
	if n.Len() < 2 || n.Component(0) != mcPrefix || n.Component(1) != syncComponent {
		return nil, false
	}
	rest := n.Components()[2:]
	if len(rest)%2 != 0 {
		return nil, false
	}
	tips := make([]record.Name, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		tips = append(tips, record.NewName(mcPrefix, rest[i], rest[i+1]))
	}
	return tips, true
}
