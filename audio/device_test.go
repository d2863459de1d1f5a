package audio

import (
	"errors"
)

// fakeDevice records stream usage and produces a ramp of samples on input.
type fakeDevice struct {
	openErr error

	inFormat  Format
	outFormat Format
	reads     int
	next      int16
	onRead    func(n int)

	writes  [][]int16
	closed  int
	readErr error
}

func (d *fakeDevice) OpenInput(f Format, frames int) (InputStream, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.inFormat = f
	return &fakeInput{d: d}, nil
}

func (d *fakeDevice) OpenOutput(f Format, frames int) (OutputStream, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.outFormat = f
	return &fakeOutput{d: d}, nil
}

type fakeInput struct{ d *fakeDevice }

func (s *fakeInput) Read(buf []int16) error {
	if s.d.readErr != nil {
		return s.d.readErr
	}
	for i := range buf {
		buf[i] = s.d.next
		s.d.next++
	}
	s.d.reads++
	if s.d.onRead != nil {
		s.d.onRead(s.d.reads)
	}
	return nil
}

func (s *fakeInput) Close() error {
	s.d.closed++
	return nil
}

type fakeOutput struct{ d *fakeDevice }

func (s *fakeOutput) Write(buf []int16) error {
	s.d.writes = append(s.d.writes, append([]int16(nil), buf...))
	return nil
}

func (s *fakeOutput) Close() error {
	s.d.closed++
	return nil
}

var errBroken = errors.New("broken device")

