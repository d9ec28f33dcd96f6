package gdbserial

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/go-delve/dbgcore/pkg/logflags"
)

// gdbConn is the packet layer of a connection to a stub. It is not safe
// for concurrent use.
type gdbConn struct {
	conn net.Conn
	rdr  *bufio.Reader

	ack          bool // every packet is acknowledged with '+' or '-'
	multiprocess bool // thread ids have the "pPID.TID" form
	threadSuffix bool // register packets name their thread with ";thread:TID;"
	xferFeatures bool // the stub can send its target description
	packetSize   int  // largest packet the stub accepts

	// selected is the thread last selected with Hg, "" when no single
	// thread is selected.
	selected string

	unpacked []byte     // body of the last packet received
	annexes  *lru.Cache // target description documents, by annex name

	log logflags.Logger
}

const (
	gdbWireMaxLen = 120

	maxTransmitAttempts = 3
	defaultPacketSize   = 0x1000
	annexCacheSize      = 32

	// escapeXor is applied to escaped bytes by the remote protocol.
	escapeXor byte = 0x20
)

// ErrTooManyAttempts is returned when the stub keeps rejecting a packet, or
// keeps sending packets with a bad checksum.
var ErrTooManyAttempts = errors.New("too many transmit attempts")

// GdbProtocolError is an error reply (Exx) of the stub, or an empty reply
// which means the stub does not know the packet.
type GdbProtocolError struct {
	context string
	cmd     string
	code    string
}

func (err *GdbProtocolError) Error() string {
	cmd := err.cmd
	if len(cmd) > 20 {
		cmd = cmd[:20] + "..."
	}
	if err.code == "" {
		return fmt.Sprintf("%s: stub does not support %s", err.context, cmd)
	}
	return fmt.Sprintf("%s: stub replied %s to %s", err.context, err.code, cmd)
}

func isProtocolErrorUnsupported(err error) bool {
	var gdberr *GdbProtocolError
	return errors.As(err, &gdberr) && gdberr.code == ""
}

// GdbMalformedThreadIDError is returned for thread ids that are neither
// "TID" nor "pPID.TID" in hexadecimal.
type GdbMalformedThreadIDError struct {
	tid string
}

func (err *GdbMalformedThreadIDError) Error() string {
	return fmt.Sprintf("malformed thread ID %q", err.tid)
}

func newConn(conn net.Conn) *gdbConn {
	annexes, err := lru.New(annexCacheSize)
	if err != nil {
		panic(err)
	}
	return &gdbConn{
		conn:       conn,
		packetSize: defaultPacketSize,
		annexes:    annexes,
		log:        logflags.GdbWireLogger(),
	}
}

// handshake negotiates acknowledgments, thread suffixes and the features
// of the stub.
func (conn *gdbConn) handshake() error {
	conn.rdr = bufio.NewReader(conn.conn)
	conn.ack = true

	// Some stubs wait for an ack before sending anything.
	conn.sendAck('+')

	if _, err := conn.exec("init", "QStartNoAckMode"); err == nil {
		conn.ack = false
	}

	switch _, err := conn.exec("init", "QThreadSuffixSupported"); {
	case err == nil:
		conn.threadSuffix = true
	case !isProtocolErrorUnsupported(err):
		return err
	}

	// Thread suffixes are not specified for multiprocess thread ids, only
	// ask for the multiprocess extensions when the suffix is not used.
	if err := conn.qSupported(!conn.threadSuffix); err != nil {
		return err
	}

	if !conn.threadSuffix {
		// gdbserver does not send target.xml until a thread is selected.
		if conn.multiprocess {
			conn.exec("init", "Hgp0.0")
		} else {
			conn.exec("init", "Hg0")
		}
	}
	return nil
}

// qSupported reads the features of the stub.
func (conn *gdbConn) qSupported(multiprocess bool) error {
	ours := "swbreak+;hwbreak+;no-resumed+;xmlRegisters=i386"
	if multiprocess {
		ours = "multiprocess+;" + ours
	}
	reply, err := conn.exec("init", "qSupported:%s", ours)
	if err != nil {
		return err
	}
	supported := make(map[string]bool)
	for _, feature := range strings.Split(string(reply), ";") {
		name, value, hasValue := strings.Cut(feature, "=")
		switch {
		case hasValue && name == "PacketSize":
			if n, err := strconv.ParseUint(value, 16, 32); err == nil && n > 0 {
				conn.packetSize = int(n)
			}
		case strings.HasSuffix(feature, "+"):
			supported[strings.TrimSuffix(feature, "+")] = true
		}
	}
	conn.multiprocess = multiprocess && supported["multiprocess"]
	conn.xferFeatures = supported["qXfer:features:read"]
	return nil
}

// readAnnex returns the target description document annex. Documents are
// transferred once per connection.
func (conn *gdbConn) readAnnex(annex string) ([]byte, error) {
	if doc, ok := conn.annexes.Get(annex); ok {
		return doc.([]byte), nil
	}
	const context = "target description transfer"
	if !conn.xferFeatures {
		return nil, &GdbProtocolError{context: context, cmd: "qXfer:features:read"}
	}

	// Each reply is 'm' or 'l' followed by data and must fit in a packet.
	chunk := conn.packetSize - 5
	if chunk <= 0 {
		chunk = defaultPacketSize - 5
	}
	var doc []byte
	for {
		reply, err := conn.exec(context, "qXfer:features:read:%s:%x,%x", annex, len(doc), chunk)
		if err != nil {
			return nil, err
		}
		if len(reply) == 0 {
			return nil, fmt.Errorf("%s: empty reply reading %s", context, annex)
		}
		doc = append(doc, reply[1:]...)
		switch reply[0] {
		case 'l':
			conn.annexes.Add(annex, doc)
			return doc, nil
		case 'm':
			if len(reply) == 1 {
				return nil, fmt.Errorf("%s: no data reading %s at offset %d", context, annex, len(doc))
			}
		default:
			return nil, fmt.Errorf("%s: malformed reply %q reading %s", context, reply, annex)
		}
	}
}

// detach sends 'D' and closes the connection.
func (conn *gdbConn) detach() error {
	if conn.conn == nil {
		return nil
	}
	_, err := conn.exec("detach", "D")
	conn.conn.Close()
	conn.conn = nil
	return err
}

// threadArgs makes threadID the target of the next register packet. It
// returns the suffix to append to the packet, if the stub takes one.
func (conn *gdbConn) threadArgs(threadID string) (string, error) {
	if conn.threadSuffix {
		return ";thread:" + threadID + ";", nil
	}
	if conn.selected != threadID {
		if _, err := conn.exec("thread selection", "Hg%s", threadID); err != nil {
			return "", err
		}
		conn.selected = threadID
	}
	return "", nil
}

// readRegisters sends 'g'. The reply is returned hex encoded, registers
// the stub can not read are sent as 'x' characters.
func (conn *gdbConn) readRegisters(threadID string) ([]byte, error) {
	suffix, err := conn.threadArgs(threadID)
	if err != nil {
		return nil, err
	}
	reply, err := conn.exec("registers read", "g%s", suffix)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), reply...), nil
}

// writeRegisters sends 'G' with data, the contents of every register.
func (conn *gdbConn) writeRegisters(threadID string, data []byte) error {
	suffix, err := conn.threadArgs(threadID)
	if err != nil {
		return err
	}
	_, err = conn.exec("registers write", "G%x%s", data, suffix)
	return err
}

// readRegister sends 'p' for remote register regnum and decodes the reply
// into data. Returns false if the stub can not read the register.
func (conn *gdbConn) readRegister(threadID string, regnum int, data []byte) (bool, error) {
	suffix, err := conn.threadArgs(threadID)
	if err != nil {
		return false, err
	}
	reply, err := conn.exec("register read", "p%x%s", regnum, suffix)
	if err != nil {
		return false, err
	}
	return decodeRegister(reply, data)
}

// writeRegister sends 'P' for remote register regnum.
func (conn *gdbConn) writeRegister(threadID string, regnum int, data []byte) error {
	suffix, err := conn.threadArgs(threadID)
	if err != nil {
		return err
	}
	_, err = conn.exec("register write", "P%x=%x%s", regnum, data, suffix)
	return err
}

// decodeRegister decodes the hex encoded register value in resp into data.
// Returns false if resp marks the value as unavailable with 'x'
// characters.
func decodeRegister(resp, data []byte) (bool, error) {
	if len(resp) < 2*len(data) {
		return false, fmt.Errorf("register value %q too short, expected %d bytes", resp, len(data))
	}
	for i := range data {
		digits := resp[2*i : 2*i+2]
		if digits[0] == 'x' || digits[1] == 'x' {
			return false, nil
		}
		n, err := strconv.ParseUint(string(digits), 16, 8)
		if err != nil {
			return false, fmt.Errorf("malformed register value %q: %v", resp, err)
		}
		data[i] = uint8(n)
	}
	return true, nil
}

// queryThreads returns the thread ids reported by qfThreadInfo and the
// following qsThreadInfo packets.
func (conn *gdbConn) queryThreads() ([]string, error) {
	var ids []string
	query := "qfThreadInfo"
	for {
		reply, err := conn.exec("thread list", query)
		if err != nil {
			return nil, err
		}
		switch reply[0] {
		case 'l':
			return ids, nil
		case 'm':
			ids = append(ids, strings.Split(string(reply[1:]), ",")...)
		default:
			return nil, fmt.Errorf("thread list: malformed reply %q to %s", reply, query)
		}
		query = "qsThreadInfo"
	}
}

// exec sends the packet described by format and args and returns the body
// of the reply. Empty and error replies are returned as a
// *GdbProtocolError, so the body is never empty.
func (conn *gdbConn) exec(context, format string, args ...interface{}) ([]byte, error) {
	cmd := format
	if len(args) > 0 {
		cmd = fmt.Sprintf(format, args...)
	}
	if err := conn.writePacket(cmd); err != nil {
		return nil, err
	}
	reply, err := conn.readPacket()
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 || isErrorReply(reply) {
		return nil, &GdbProtocolError{context: context, cmd: cmd, code: string(reply)}
	}
	return reply, nil
}

// isErrorReply matches the "Enn" and "E.message" replies.
func isErrorReply(reply []byte) bool {
	if len(reply) < 2 || reply[0] != 'E' {
		return false
	}
	if reply[1] == '.' {
		return true
	}
	if len(reply) != 3 {
		return false
	}
	_, err := strconv.ParseUint(string(reply[1:]), 16, 8)
	return err == nil
}

// writePacket frames body as "$body#cc" and sends it, resending it while
// the stub answers with '-'.
func (conn *gdbConn) writePacket(body string) error {
	pkt := make([]byte, 0, len(body)+4)
	pkt = append(pkt, '$')
	pkt = append(pkt, body...)
	pkt = append(pkt, '#')
	pkt = fmt.Appendf(pkt, "%02x", checksum([]byte(body)))

	for attempt := 0; ; attempt++ {
		conn.logPacket("<-", pkt)
		if _, err := conn.conn.Write(pkt); err != nil {
			return err
		}
		if !conn.ack || conn.readAck() {
			return nil
		}
		if attempt >= maxTransmitAttempts {
			return ErrTooManyAttempts
		}
	}
}

// readPacket reads the next packet from the stub and returns its unpacked
// body. The result is only valid until the next call.
func (conn *gdbConn) readPacket() ([]byte, error) {
	for attempt := 0; ; {
		start, err := conn.rdr.ReadByte()
		if err != nil {
			return nil, err
		}
		if start != '$' && start != '%' {
			// stray acks or line noise before the packet
			continue
		}
		body, err := conn.rdr.ReadBytes('#')
		if err != nil {
			return nil, err
		}
		body = body[:len(body)-1]
		var sum [2]byte
		if _, err := io.ReadFull(conn.rdr, sum[:]); err != nil {
			return nil, err
		}
		conn.logPacket("->", body)

		if start == '%' {
			// Notifications were not requested during the handshake.
			continue
		}
		if !conn.ack {
			conn.unpacked = unpack(body, conn.unpacked)
			return conn.unpacked, nil
		}
		if checksumOK(body, sum[:]) {
			conn.sendAck('+')
			conn.unpacked = unpack(body, conn.unpacked)
			return conn.unpacked, nil
		}
		if attempt >= maxTransmitAttempts {
			conn.sendAck('+')
			return nil, ErrTooManyAttempts
		}
		attempt++
		conn.sendAck('-')
	}
}

// readAck reads the stub's acknowledgment of the last packet.
func (conn *gdbConn) readAck() bool {
	b, err := conn.rdr.ReadByte()
	if err != nil {
		return false
	}
	conn.logPacket("->", []byte{b})
	return b == '+'
}

func (conn *gdbConn) sendAck(c byte) {
	conn.conn.Write([]byte{c})
	conn.logPacket("<-", []byte{c})
}

func (conn *gdbConn) logPacket(dir string, pkt []byte) {
	if !logflags.GdbWire() {
		return
	}
	if len(pkt) > gdbWireMaxLen {
		conn.log.Debugf("%s %s...", dir, pkt[:gdbWireMaxLen])
		return
	}
	conn.log.Debugf("%s %s", dir, pkt)
}

// unpack undoes the escaping ("}x") and the run length encoding ("c*n")
// of a packet body, reusing buf.
func unpack(body, buf []byte) []byte {
	buf = buf[:0]
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '}' && i+1 < len(body):
			i++
			buf = append(buf, body[i]^escapeXor)
		case c == '*' && i+1 < len(body) && len(buf) > 0:
			i++
			last := buf[len(buf)-1]
			for n := int(body[i]) - 29; n > 0; n-- {
				buf = append(buf, last)
			}
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

// checksumOK reports whether sum, two hex digits, is the checksum of body.
func checksumOK(body, sum []byte) bool {
	n, err := strconv.ParseUint(string(sum), 16, 8)
	return err == nil && uint8(n) == checksum(body)
}

// checksum is the sum modulo 256 of the bytes of a packet body.
func checksum(body []byte) (sum uint8) {
	for _, b := range body {
		sum += b
	}
	return sum
}
