// Package protocol implements the mBot serial packet protocol.
package protocol

// The controller sends command packets framed as
//
//	0xff 0x55 <length> <id> <class> <opcode> <payload...>
//
// where class 0x02 is a fire-and-forget action and 0x01 is a request
// whose id is echoed in the response. Responses are framed as
//
//	0xff 0x55 <id> <type> <payload...> 0x0d 0x0a
//
// There is no checksum; the scanner relies on the markers only.
//
// Producer: mBot firmware (responses), controller (commands)
// Consumer: controller (responses), mBot firmware (commands)
