package dht22

// Decode converts the recorded edge timestamps into a measurement and moves
// the session to a terminal phase. Call it after the settle interval has
// elapsed; it is deterministic over the buffered timestamps, so calling it
// again before TakeResult re-derives the same outcome.
//
// A short capture (timeout, missing sensor, noise) returns ErrIO. A checksum
// mismatch is not an error here: it is an expected protocol-level outcome,
// reported through TakeResult.
func (s *Sensor) Decode() error {
	s.mu.lock()
	defer s.mu.unlock()

	st := &s.session
	if st.phase == phaseIdle {
		return ErrNoRead
	}
	if st.numEdges < edgeCapacity {
		st.phase = phaseOtherError
		return ErrIO
	}

	// Each data bit is the pulse between two consecutive falling edges
	// after the preamble. Every bit starts with a fixed ~50µs low; a short
	// high means 0, a long high means 1, so the total pulse width decides
	// the bit. Bits arrive most-significant-first.
	st.bytes = [dataBytes]byte{}
	for i := 0; i < dataBits; i++ {
		width := st.timestamps[i+preambleEdges] - st.timestamps[i+preambleEdges-1]
		if width > bitThreshold {
			st.bytes[i/8] |= 1 << (7 - i%8)
		}
	}

	sum := st.bytes[0] + st.bytes[1] + st.bytes[2] + st.bytes[3]
	if sum != st.bytes[4] {
		st.phase = phaseChecksumError
		return nil
	}

	st.phase = phaseOK
	st.lastRead = st.timestamps[st.numEdges-1]
	st.humidity = int(st.bytes[0])*256 + int(st.bytes[1])
	st.temperature = int(st.bytes[2]&0x7F)*256 + int(st.bytes[3])
	st.negative = st.bytes[2]&0x80 != 0
	return nil
}
