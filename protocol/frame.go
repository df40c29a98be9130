package protocol

import "fmt"

const (
	frameFlag   = 0x7E
	frameEscape = 0x7D
	escapeXOR   = 0x20

	// maxFrameBody is the longest escaped body a legal packet can produce.
	maxFrameBody = 2 * (headerLen + overheadLen + MaxPayload)
)

// Frame wraps a packet in flag bytes, escaping any flag or escape bytes inside it.
func Frame(pkt []byte) []byte {
	out := make([]byte, 0, len(pkt)+2)
	out = append(out, frameFlag)
	for _, b := range pkt {
		if b == frameFlag || b == frameEscape {
			out = append(out, frameEscape, b^escapeXOR)
			continue
		}
		out = append(out, b)
	}
	return append(out, frameFlag)
}

// EncodeFrame encodes m as a packet and frames it, ready to be written to a link.
func EncodeFrame(m Message) ([]byte, error) {
	pkt, err := EncodePacket(m)
	if err != nil {
		return nil, err
	}
	return Frame(pkt), nil
}

// unescape reverses the escaping done by Frame on the bytes between two flags.
func unescape(body []byte) ([]byte, error) {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b != frameEscape {
			out = append(out, b)
			continue
		}
		i++
		if i == len(body) {
			return nil, fmt.Errorf("%w: dangling escape", ErrInvalidFrame)
		}
		u := body[i] ^ escapeXOR
		if u != frameFlag && u != frameEscape {
			return nil, fmt.Errorf("%w: bad escape 0x%02X", ErrInvalidFrame, body[i])
		}
		out = append(out, u)
	}
	return out, nil
}

// Result is one unit produced by a Deframer: either a decoded message or
// the error that made the frame unusable.
type Result struct {
	Message Message
	Err     error
}

// Deframer reassembles frames from an arbitrary chunked byte stream.
// Bytes before the first flag are discarded, as is the rest of a frame that
// outgrows maxFrameBody. Consecutive flags delimit nothing and are skipped,
// so a flag may both close one frame and open the next.
type Deframer struct {
	buf     []byte
	inFrame bool
}

// Feed consumes p and returns every complete frame it closed, decoded.
func (d *Deframer) Feed(p []byte) []Result {
	var results []Result
	for _, b := range p {
		if b != frameFlag {
			if !d.inFrame {
				continue
			}
			if len(d.buf) == maxFrameBody {
				results = append(results, Result{
					Err: fmt.Errorf("%w: no closing flag within %d bytes", ErrInvalidFrame, maxFrameBody),
				})
				d.Reset()
				continue
			}
			d.buf = append(d.buf, b)
			continue
		}
		if d.inFrame && len(d.buf) > 0 {
			results = append(results, decodeFrameBody(d.buf))
			d.buf = d.buf[:0]
		}
		d.inFrame = true
	}
	return results
}

// Reset drops any partially received frame.
func (d *Deframer) Reset() {
	d.buf = d.buf[:0]
	d.inFrame = false
}

func decodeFrameBody(body []byte) Result {
	pkt, err := unescape(body)
	if err != nil {
		return Result{Err: err}
	}
	msg, err := DecodePacket(pkt)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Message: msg}
}
