package mbot

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mbot.go/pkg/mbot/link"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// DefaultIdleWait is how long the reader waits for a link to open.
const DefaultIdleWait = 500 * time.Millisecond

const readBufferSize = 64

// reader owns the read side of a link.
type reader struct {
	link     link.Link
	pending  *Pending
	idleWait time.Duration
	scanner  protocol.Scanner
}

// run reads until stopCh is closed. Errors while stopping are
// suppressed, any other read error is returned.
func (r *reader) run(stopCh <-chan struct{}) error {
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-stopCh:
			return nil
		default:
		}
		if !r.link.IsOpen() {
			select {
			case <-stopCh:
				return nil
			case <-time.After(r.idleWait):
			}
			continue
		}
		n, err := r.link.Read(buf)
		if err != nil {
			select {
			case <-stopCh:
				return nil
			default:
				return err
			}
		}
		r.scanner.Feed(buf[:n], r.resolve, r.malformed)
	}
}

func (r *reader) resolve(f *protocol.Frame) {
	if !r.pending.Resolve(f.RequestID, f.Value) {
		glog.V(2).Infof("unsolicited response %d: %v", f.RequestID, f.Value)
		return
	}
	glog.V(3).Infof("response %d: %v", f.RequestID, f.Value)
}

func (r *reader) malformed(err error) {
	glog.V(2).Infof("frame dropped: %v", err)
}
