// Package protocol implements the wire codec described in spec §4.2 and
// §6: a tag (seven bytes for Hello/HelloBack, four for every other
// message) followed by typed arguments, framed by the packet framer
// below it. Only the Hello/HelloBack handshake messages are encoded
// and decoded here directly by the core; every other message tag is
// defined in messages.go for the server-proxy collaborator (package
// serverproxy) to use once the session reaches Active.
//
// The binary layout technique (big-endian length-prefixed fields, a
// switch over a fixed tag driving how the remaining payload is sized) is
// carried over from aluo96078-vkvm/internal/protocol/udp.go; the tag
// format and message set themselves are this protocol's own.
package protocol

import (
	"encoding/binary"
	"fmt"
)

// HelloTag is the seven-byte ASCII tag that opens both Hello and HelloBack.
const HelloTag = "Synergy"

// ProtocolMajorVersion and ProtocolMinorVersion are this client's
// compiled-in protocol version (spec §4.2, §6).
const (
	ProtocolMajorVersion int16 = 1
	ProtocolMinorVersion int16 = 6
)

// VersionSupported reports whether a server advertising major.minor is
// compatible with this client: the server's version must be
// lexicographically >= the compiled version (spec §4.2).
func VersionSupported(major, minor int16) bool {
	if major != ProtocolMajorVersion {
		return major > ProtocolMajorVersion
	}
	return minor >= ProtocolMinorVersion
}

// EncodeHello marshals a Hello message (server -> client in the real
// exchange; exposed here symmetrically so tests and a reference server can
// construct one).
func EncodeHello(major, minor int16) []byte {
	buf := make([]byte, len(HelloTag)+4)
	copy(buf, HelloTag)
	binary.BigEndian.PutUint16(buf[len(HelloTag):], uint16(major))
	binary.BigEndian.PutUint16(buf[len(HelloTag)+2:], uint16(minor))
	return buf
}

// DecodeHello parses a Hello frame. It returns an error if the tag does
// not match or the frame is too short — the core treats this as "Protocol
// error from server" (spec §7).
func DecodeHello(frame []byte) (major, minor int16, err error) {
	if len(frame) < len(HelloTag)+4 || string(frame[:len(HelloTag)]) != HelloTag {
		return 0, 0, fmt.Errorf("protocol: malformed hello")
	}
	major = int16(binary.BigEndian.Uint16(frame[len(HelloTag):]))
	minor = int16(binary.BigEndian.Uint16(frame[len(HelloTag)+2:]))
	return major, minor, nil
}

// EncodeHelloBack marshals a HelloBack message: tag, major, minor, then a
// four-byte big-endian length-prefixed UTF-8 client name.
func EncodeHelloBack(major, minor int16, name string) []byte {
	nameBytes := []byte(name)
	buf := make([]byte, len(HelloTag)+4+4+len(nameBytes))
	off := 0
	copy(buf[off:], HelloTag)
	off += len(HelloTag)
	binary.BigEndian.PutUint16(buf[off:], uint16(major))
	off += 2
	binary.BigEndian.PutUint16(buf[off:], uint16(minor))
	off += 2
	binary.BigEndian.PutUint32(buf[off:], uint32(len(nameBytes)))
	off += 4
	copy(buf[off:], nameBytes)
	return buf
}

// DecodeHelloBack parses a HelloBack frame, the inverse of EncodeHelloBack.
func DecodeHelloBack(frame []byte) (major, minor int16, name string, err error) {
	if len(frame) < len(HelloTag)+8 || string(frame[:len(HelloTag)]) != HelloTag {
		return 0, 0, "", fmt.Errorf("protocol: malformed hello-back")
	}
	off := len(HelloTag)
	major = int16(binary.BigEndian.Uint16(frame[off:]))
	off += 2
	minor = int16(binary.BigEndian.Uint16(frame[off:]))
	off += 2
	strLen := binary.BigEndian.Uint32(frame[off:])
	off += 4
	if uint32(len(frame)-off) < strLen {
		return 0, 0, "", fmt.Errorf("protocol: truncated hello-back name")
	}
	name = string(frame[off : off+int(strLen)])
	return major, minor, name, nil
}
