package audio

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is an initialized PortAudio host. Create one per process with
// OpenPortAudio and release it with Close.
type PortAudio struct {
	deviceID int
}

// DeviceInfo describes an input-capable device.
type DeviceInfo struct {
	ID                int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// OpenPortAudio initializes PortAudio. A deviceID of 0 selects the default
// input device.
func OpenPortAudio(deviceID int) (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %v", ErrDevice, err)
	}
	return &PortAudio{deviceID: deviceID}, nil
}

func (p *PortAudio) Close() error {
	return portaudio.Terminate()
}

// InputDevices lists every device that can record.
func (p *PortAudio) InputDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}
	var out []DeviceInfo
	for i, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		out = append(out, DeviceInfo{
			ID:                i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		})
	}
	return out, nil
}

func (p *PortAudio) inputDevice() (*portaudio.DeviceInfo, error) {
	if p.deviceID <= 0 {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if p.deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID %d", p.deviceID)
	}
	device := devices[p.deviceID]
	if device.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) is not an input device", p.deviceID, device.Name)
	}
	return device, nil
}

func (p *PortAudio) OpenInput(f Format, framesPerBuffer int) (InputStream, error) {
	if f.SampleWidth != 2 {
		return nil, fmt.Errorf("%w: unsupported sample width %d", ErrDevice, f.SampleWidth)
	}
	device, err := p.inputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	slog.Debug("Opening input stream",
		"deviceName", device.Name,
		"sampleRate", f.SampleRate,
		"channels", f.Channels,
		"framesPerBuffer", framesPerBuffer)

	buf := make([]int16, framesPerBuffer*f.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: f.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(f.SampleRate),
		FramesPerBuffer: framesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open input stream: %v", ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: failed to start input stream: %v", ErrDevice, err)
	}
	return &paStream{stream: stream, buf: buf}, nil
}

func (p *PortAudio) OpenOutput(f Format, framesPerBuffer int) (OutputStream, error) {
	if f.SampleWidth != 2 {
		return nil, fmt.Errorf("%w: unsupported sample width %d", ErrDevice, f.SampleWidth)
	}
	buf := make([]int16, framesPerBuffer*f.Channels)
	stream, err := portaudio.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), framesPerBuffer, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open output stream: %v", ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: failed to start output stream: %v", ErrDevice, err)
	}
	return &paStream{stream: stream, buf: buf}, nil
}

// paStream adapts a blocking PortAudio stream bound to buf.
type paStream struct {
	stream *portaudio.Stream
	buf    []int16
}

func (s *paStream) Read(dst []int16) error {
	if len(dst) != len(s.buf) {
		return fmt.Errorf("%w: read of %d samples on a %d sample stream", ErrDevice, len(dst), len(s.buf))
	}
	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return fmt.Errorf("%w: %v", ErrDevice, err)
		}
		slog.Debug("Input overflowed")
	}
	copy(dst, s.buf)
	return nil
}

func (s *paStream) Write(src []int16) error {
	if len(src) != len(s.buf) {
		return fmt.Errorf("%w: write of %d samples on a %d sample stream", ErrDevice, len(src), len(s.buf))
	}
	copy(s.buf, src)
	if err := s.stream.Write(); err != nil {
		if !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("%w: %v", ErrDevice, err)
		}
		slog.Debug("Output underflowed")
	}
	return nil
}

func (s *paStream) Close() error {
	stopErr := s.stream.Stop()
	if err := s.stream.Close(); err != nil {
		return err
	}
	return stopErr
}
