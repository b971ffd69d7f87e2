package link

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// Sim is an in-process simulated robot. It records the packets written
// to it and answers requests with configured readings.
// It is its own Dialer: dialing reopens it.
type Sim struct {
	ReadTimeout time.Duration

	lock     sync.Mutex
	open     bool
	pending  []byte
	written  []byte
	packets  []*protocol.Packet
	readings map[byte]protocol.Value
	silent   bool
	dialErr  error
	readErr  error
	notifyCh chan struct{}
}

// NewSim creates a Sim reporting nothing interesting: far obstacle,
// bright light, released button.
func NewSim() *Sim {
	s := &Sim{
		ReadTimeout: DefaultReadTimeout,
		readings:    make(map[byte]protocol.Value),
		notifyCh:    make(chan struct{}, 1),
	}
	s.readings[protocol.OpUltrasonic] = protocol.FloatValue(400)
	s.readings[protocol.OpLight] = protocol.FloatValue(800)
	s.readings[protocol.OpButton] = protocol.FloatValue(1)
	s.readings[protocol.OpLineFollower] = protocol.FloatValue(3)
	return s
}

// Dial implements Dialer.
func (s *Sim) Dial(ctx context.Context) (Link, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.dialErr; err != nil {
		return nil, err
	}
	s.open, s.readErr, s.pending = true, nil, nil
	return s, nil
}

// SetReading sets the value answered to requests with opcode.
func (s *Sim) SetReading(opcode byte, v protocol.Value) {
	s.lock.Lock()
	s.readings[opcode] = v
	s.lock.Unlock()
}

// SetSilent stops (or resumes) answering requests.
func (s *Sim) SetSilent(silent bool) {
	s.lock.Lock()
	s.silent = silent
	s.lock.Unlock()
}

// FailDial makes subsequent Dial calls fail with err, nil to recover.
func (s *Sim) FailDial(err error) {
	s.lock.Lock()
	s.dialErr = err
	s.lock.Unlock()
}

// FailRead makes the next Read fail with err.
func (s *Sim) FailRead(err error) {
	s.lock.Lock()
	s.readErr = err
	s.lock.Unlock()
	s.notify()
}

// Inject queues raw bytes for Read.
func (s *Sim) Inject(b []byte) {
	s.lock.Lock()
	s.pending = append(s.pending, b...)
	s.lock.Unlock()
	s.notify()
}

// Packets returns all packets written so far.
func (s *Sim) Packets() []*protocol.Packet {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*protocol.Packet(nil), s.packets...)
}

// PacketsOf returns the written packets with opcode.
func (s *Sim) PacketsOf(opcode byte) (pkts []*protocol.Packet) {
	for _, pkt := range s.Packets() {
		if pkt.Opcode == opcode {
			pkts = append(pkts, pkt)
		}
	}
	return
}

// ClearPackets forgets the written packets.
func (s *Sim) ClearPackets() {
	s.lock.Lock()
	s.packets = nil
	s.lock.Unlock()
}

func (s *Sim) notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Read implements Link.
func (s *Sim) Read(p []byte) (int, error) {
	timer := time.NewTimer(s.ReadTimeout)
	defer timer.Stop()
	for {
		s.lock.Lock()
		if !s.open {
			s.lock.Unlock()
			return 0, ErrClosed
		}
		if err := s.readErr; err != nil {
			s.readErr = nil
			s.lock.Unlock()
			return 0, err
		}
		if len(s.pending) > 0 {
			n := copy(p, s.pending)
			s.pending = s.pending[n:]
			s.lock.Unlock()
			return n, nil
		}
		s.lock.Unlock()
		select {
		case <-s.notifyCh:
		case <-timer.C:
			return 0, nil
		}
	}
}

// Write implements Link.
func (s *Sim) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.open {
		return 0, ErrClosed
	}
	s.written = append(s.written, p...)
	for {
		pkt, n, err := protocol.ParsePacket(s.written)
		if err == protocol.ErrShortPacket {
			break
		}
		if err != nil {
			glog.Warningf("sim: drop %d bytes: %v", len(s.written), err)
			s.written = nil
			break
		}
		s.written = s.written[n:]
		s.packets = append(s.packets, pkt)
		if pkt.Class != protocol.ClassRequest || s.silent {
			continue
		}
		if v, ok := s.readings[pkt.Opcode]; ok {
			frame := protocol.Frame{RequestID: pkt.ID, Value: v}
			s.pending = append(s.pending, frame.Bytes()...)
			s.notify()
		}
	}
	return len(p), nil
}

// IsOpen implements Link.
func (s *Sim) IsOpen() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.open
}

// Close implements Link.
func (s *Sim) Close() error {
	s.lock.Lock()
	s.open = false
	s.lock.Unlock()
	s.notify()
	return nil
}
