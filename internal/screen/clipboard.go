package screen

// Clipboard is the marshalled form of one clipboard slot's contents
// (spec §3, GLOSSARY). It is a plain value: package session's clipboard
// tracker owns the policy for when to fetch, marshal and send one; this
// type only carries the bytes and the timestamp they were observed at.
type Clipboard struct {
	Time    uint32
	Payload []byte
}

// Equal reports whether two clipboard payloads carry the same bytes,
// used by the tracker to decide whether a refreshed payload actually
// differs from the last one transmitted (spec §4.3).
func (c Clipboard) Equal(other Clipboard) bool {
	if len(c.Payload) != len(other.Payload) {
		return false
	}
	for i := range c.Payload {
		if c.Payload[i] != other.Payload[i] {
			return false
		}
	}
	return true
}
