package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrNoPort       = errors.New("midi: no output ports available")
	ErrPortNotFound = errors.New("midi: output port not found")
	ErrScanTimeout  = errors.New("midi: port scan timed out")
	ErrClosed       = errors.New("midi: port closed")
)

// ScanTimeout bounds a port listing. Some backends (CoreMIDI) can hang.
const ScanTimeout = 3 * time.Second

// OutPort is an opened MIDI output. It is safe for concurrent use.
type OutPort struct {
	mu   sync.Mutex
	name string
	out  drivers.Out
	send func(gomidi.Message) error
}

// OpenOut opens the output port matching name. An empty name opens the first
// port. Names match exactly first, then by case-insensitive substring.
func OpenOut(name string) (*OutPort, error) {
	ports, err := listOutPorts(ScanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	i, err := MatchPort(names, name)
	if err != nil {
		return nil, err
	}

	out := ports[i]
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", names[i], err)
	}
	return &OutPort{name: names[i], out: out, send: send}, nil
}

// OutPortNames lists the available output ports
func OutPortNames() ([]string, error) {
	ports, err := listOutPorts(ScanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

// MatchPort picks the index of want in names
func MatchPort(names []string, want string) (int, error) {
	if len(names) == 0 {
		return -1, ErrNoPort
	}
	if want == "" {
		return 0, nil
	}
	for i, n := range names {
		if n == want {
			return i, nil
		}
	}
	lower := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrPortNotFound, want)
}

func listOutPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(timeout):
		return nil, ErrScanTimeout
	}
}

// Name returns the port name
func (p *OutPort) Name() string {
	return p.name
}

// Send writes one event to the port
func (p *OutPort) Send(e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.send == nil {
		return ErrClosed
	}
	if err := p.send(e.Message()); err != nil {
		return fmt.Errorf("send %s to %q: %w", e, p.name, err)
	}
	return nil
}

// Close releases the port. Further sends return ErrClosed.
func (p *OutPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.send == nil {
		return nil
	}
	p.send = nil
	return p.out.Close()
}
