package dht22

import "errors"

// TakeResult consumes the session outcome and re-opens the session for the
// next read. It always leaves the phase idle, whatever it found: consuming
// a result unblocks future reads unconditionally.
//
// Calling it before the settle interval has elapsed reports StatusNotRead
// (and abandons the in-flight collection).
func (s *Sensor) TakeResult() Result {
	s.mu.lock()
	st := &s.session

	var res Result
	switch st.phase {
	case phaseOK:
		res = Result{
			Status: StatusOK,
			Measurement: Measurement{
				Negative:    st.negative,
				Temperature: st.temperature,
				Humidity:    st.humidity,
			},
		}
	case phaseChecksumError:
		res.Status = StatusChecksumError
	case phaseTooSoon:
		res.Status = StatusTooSoon
	case phaseCollecting:
		res.Status = StatusNotRead
	default:
		res.Status = StatusIOError
	}
	st.phase = phaseIdle

	s.mu.unlock()
	return res
}

// Read runs one full acquisition: arm the session, wait for the sensor
// transmission to finish, decode, and consume the outcome. BeginRead
// rejections map onto the same outcome vocabulary.
func (s *Sensor) Read(channel int) Result {
	switch err := s.BeginRead(channel); {
	case err == nil:
	case errors.Is(err, ErrReaderBusy):
		// The outstanding read keeps its session; nothing to consume.
		return Result{Status: StatusReaderBusy}
	case errors.Is(err, ErrChannelUnavailable):
		return Result{Status: StatusIOError}
	default:
		// TooSoon and drive failures left a terminal phase behind.
		return s.TakeResult()
	}

	s.sleep(s.settle)
	s.Decode()
	return s.TakeResult()
}
