package nm3

import (
	"bytes"
)

// Sentence is one framed unit from the modem's serial stream. Data
// holds the sentence body after the two character tag.
type Sentence struct {
	Code ResponseCode
	Data []byte
}

// Scanner splits the modem's byte stream into sentences. Inbound
// packets carry length-prefixed payloads that may contain CR, LF or
// sentence start characters, so the payload length has to drive the
// framing rather than line endings. Feed may be called with reads of
// any size, including reads that end mid-sentence.
type Scanner struct {
	buf []byte
}

// Feed appends p to the unconsumed stream and returns all sentences
// that are now complete. Bytes that cannot start a sentence are
// silently dropped.
func (s *Scanner) Feed(p []byte) []Sentence {
	s.buf = append(s.buf, p...)

	var out []Sentence
	for {
		sen, n, ok := scanSentence(s.buf)
		if n == 0 {
			break
		}
		s.buf = s.buf[n:]
		if ok {
			out = append(out, sen)
		}
	}

	if len(s.buf) == 0 {
		s.buf = nil
	}
	return out
}

func isStartByte(b byte) bool {
	return b == '$' || b == '#' || b == 'E'
}

// scanSentence tries to take one sentence off the front of buf. It
// returns the number of bytes consumed and whether a sentence was
// emitted; consuming zero bytes means more data is needed.
func scanSentence(buf []byte) (Sentence, int, bool) {
	if len(buf) == 0 {
		return Sentence{}, 0, false
	}

	// Drop noise in front of the next start byte.
	if !isStartByte(buf[0]) {
		for i, b := range buf {
			if isStartByte(b) {
				return Sentence{}, i, false
			}
		}
		return Sentence{}, len(buf), false
	}

	switch buf[0] {
	case 'E':
		return scanRejected(buf)
	case '$':
		return scanEcho(buf)
	case '#':
		return scanReport(buf)
	}

	panic("unreachable")
}

func scanRejected(buf []byte) (Sentence, int, bool) {
	if len(buf) < 2 {
		return Sentence{}, 0, false
	}
	n, ok := scanTerminator(buf[1:])
	if !ok {
		// Not a rejection sentence, resync past the E.
		return Sentence{}, 1, false
	}
	if n == 0 {
		return Sentence{}, 0, false
	}
	return Sentence{Code: ResponseCommandRejected}, 1 + n, true
}

// scanTerminator matches the CRLF (or bare LF) that ends a sentence.
// A zero length with ok set means more data is needed.
func scanTerminator(buf []byte) (int, bool) {
	if len(buf) == 0 {
		return 0, true
	}
	if buf[0] == '\n' {
		return 1, true
	}
	if buf[0] == '\r' {
		if len(buf) < 2 {
			return 0, true
		}
		if buf[1] == '\n' {
			return 2, true
		}
	}
	return 0, false
}

// scanLine returns the body between buf[from:] and the next line
// ending along with the total bytes consumed through the terminator.
func scanLine(buf []byte, from int) ([]byte, int) {
	ix := bytes.IndexByte(buf[from:], '\n')
	if ix == -1 {
		return nil, 0
	}
	end := from + ix
	body := buf[from:end]
	if len(body) > 0 && body[len(body)-1] == '\r' {
		body = body[:len(body)-1]
	}
	return body, end + 1
}

func scanEcho(buf []byte) (Sentence, int, bool) {
	if len(buf) < 2 {
		return Sentence{}, 0, false
	}

	var code ResponseCode
	switch buf[1] {
	case 'P':
		code = ResponsePingSent
	case 'U':
		code = ResponseUnicastSent
	case 'M':
		code = ResponseAckRequestSent
	case 'B':
		code = ResponseBroadcastSent
	default:
		return Sentence{}, 1, false
	}

	body, n := scanLine(buf, 2)
	if n == 0 {
		return Sentence{}, 0, false
	}
	return Sentence{Code: code, Data: bytes.Clone(body)}, n, true
}

func scanReport(buf []byte) (Sentence, int, bool) {
	if len(buf) < 2 {
		return Sentence{}, 0, false
	}

	switch buf[1] {
	case 'U':
		return scanPacket(buf, ResponseUnicastReceived, 2)
	case 'B':
		return scanPacket(buf, ResponseBroadcastReceived, 5)
	case 'A', 'R', 'T':
	default:
		return Sentence{}, 1, false
	}

	body, n := scanLine(buf, 2)
	if n == 0 {
		return Sentence{}, 0, false
	}

	switch buf[1] {
	case 'A':
		if bytes.IndexByte(body, 'V') != -1 {
			return Sentence{Code: ResponseStatus, Data: bytes.Clone(body)}, n, true
		}
		return Sentence{Code: ResponseAddressSet, Data: bytes.Clone(body)}, n, true
	case 'R':
		return Sentence{Code: ResponseRangeReport, Data: bytes.Clone(body)}, n, true
	case 'T':
		if bytes.Equal(body, []byte("O")) {
			return Sentence{Code: ResponseNoReply}, n, true
		}
	}
	return Sentence{}, n, false
}

// scanPacket frames a length-prefixed inbound packet. headerLen is the
// digit count between the tag and the payload: the two digit length
// field, preceded by a three digit source address for broadcasts.
func scanPacket(buf []byte, code ResponseCode, headerLen int) (Sentence, int, bool) {
	if len(buf) < 2+headerLen {
		return Sentence{}, 0, false
	}

	header := buf[2 : 2+headerLen]
	for _, b := range header {
		if b < '0' || b > '9' {
			return Sentence{}, 1, false
		}
	}

	length, err := parseDigits(header[headerLen-2:])
	if err != nil || length > MaxPayloadLen {
		return Sentence{}, 1, false
	}

	end := 2 + headerLen + length
	if len(buf) < end {
		return Sentence{}, 0, false
	}

	n, ok := scanTerminator(buf[end:])
	if !ok {
		return Sentence{}, 1, false
	}
	if n == 0 {
		return Sentence{}, 0, false
	}

	return Sentence{Code: code, Data: bytes.Clone(buf[2:end])}, end + n, true
}
