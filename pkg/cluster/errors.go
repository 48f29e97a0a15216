package cluster

import "errors"

// ErrUnexpectedPacket is returned when a peer sends a packet type the
// receiving role does not accept.
var ErrUnexpectedPacket = errors.New("cluster: unexpected packet type")
