package rpcpipeline

import (
	"encoding/binary"

	"github.com/clusterfs/rpcsec/pkg/flavor"
)

// msgMagic distinguishes a native-order header from the byte-swapped
// wire order a peer of differing endianness would send (spec section
// 4.D "set a per-request swabbed bit if the unpacker reports
// byte-swap"). It has no symmetric byte pattern, so reading it with
// the wrong endianness never silently matches.
const msgMagic = uint32(0x00a5c3d1)

const msgHeaderLen = 8 // magic(4) + policy(1) + service(1) + reserved(2), 8-byte aligned

// HeaderLen is the framing header size a transport needs to budget
// for ahead of a wrapped body, exported for callers that build or
// split wire buffers outside this package.
const HeaderLen = msgHeaderLen

// FrameReply prefixes body with the framing header a reply's flavor
// would have carried on the wire, for transports that hand back a
// bare wrapped-and-signed/sealed payload out of band (e.g. gRPC
// header metadata) and need it back in the shape UnwrapReply expects.
// The header starts at byte 0 of the result, so the reply offset to
// pass to SetReplyBytes is 0.
func FrameReply(f flavor.Flavor, body []byte) []byte {
	return append(encodeMsgHeader(f), body...)
}

// encodeMsgHeader writes the outer framing header identifying the
// flavor of the body that follows (spec section 4.D "unpack the outer
// lustre_msg").
func encodeMsgHeader(f flavor.Flavor) []byte {
	h := make([]byte, msgHeaderLen)
	binary.LittleEndian.PutUint32(h[0:4], msgMagic)
	h[4] = byte(f.Policy)
	h[5] = byte(f.Service)
	return h
}

// PeekFlavor reads only the policy/service pair off a wrapped body's
// framing header, without unwrapping the rest of the message. It is
// exported for server-side code (e.g. package grpcsec's flavor gate
// interceptor) that needs to know what flavor an incoming request
// claims before any Sec/CliCtx machinery runs. The returned Flavor
// carries a zero Bulk and Flags, since those bits never travel in the
// framing header itself; callers that need a full comparison should
// compare only the fields PeekFlavor actually reports.
func PeekFlavor(buf []byte) (flavor.Flavor, error) {
	policy, service, _, err := decodeMsgHeader(buf)
	if err != nil {
		return flavor.Flavor{}, err
	}
	return flavor.Flavor{Policy: policy, Service: service}, nil
}

// decodeMsgHeader reads a header written by encodeMsgHeader, reporting
// the policy/service it names and whether the bytes were found in
// swapped byte order.
func decodeMsgHeader(buf []byte) (policy flavor.PolicyNumber, service flavor.Service, swabbed bool, err error) {
	if len(buf) < msgHeaderLen {
		return 0, 0, false, ErrProtocol
	}

	magicLE := binary.LittleEndian.Uint32(buf[0:4])
	magicBE := binary.BigEndian.Uint32(buf[0:4])

	switch msgMagic {
	case magicLE:
		return flavor.PolicyNumber(buf[4]), flavor.Service(buf[5]), false, nil
	case magicBE:
		// The peer wrote in the opposite byte order; policy/service
		// are single bytes and need no swabbing themselves, only the
		// bit is reported so callers can swab any multi-byte payload
		// fields of their own.
		return flavor.PolicyNumber(buf[4]), flavor.Service(buf[5]), true, nil
	default:
		return 0, 0, false, ErrProtocol
	}
}
