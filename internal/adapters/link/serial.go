package link

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// ErrLinkClosed is returned for calls issued after the port failed or was
// closed.
var ErrLinkClosed = errors.New("manipulator link closed")

// request is one newline-delimited JSON command sent to the controller.
type request struct {
	ID          string      `json:"id"`
	Op          string      `json:"op"`
	Manipulator string      `json:"manipulator"`
	Depth       float64     `json:"depth"`
	Position    *wireVector `json:"position,omitempty"`
	Speed       float64     `json:"speed"`
}

// response is the controller's answer to the request with the same ID.
type response struct {
	ID       string      `json:"id"`
	Position *wireVector `json:"position,omitempty"`
	Depth    float64     `json:"depth"`
	Error    string      `json:"error,omitempty"`
}

type wireVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func toWire(v models.Vector4) *wireVector {
	return &wireVector{X: v.X, Y: v.Y, Z: v.Z, W: v.W}
}

func (w *wireVector) vector() models.Vector4 {
	if w == nil {
		return models.NaN4()
	}
	return models.Vector4{X: w.X, Y: w.Y, Z: w.Z, W: w.W}
}

// SerialLink implements secondary.ManipulatorLink over a Port. Requests carry
// a unique ID and a reader goroutine routes each response to its caller, so
// a Stop can be sent while a move is still waiting for its answer.
type SerialLink struct {
	port Port

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response
	err     error
	done    chan struct{}
}

// NewSerialLink starts reading responses from port.
func NewSerialLink(port Port) *SerialLink {
	l := &SerialLink{
		port:    port,
		pending: make(map[string]chan response),
		done:    make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// Close closes the port. Calls still waiting fail with ErrLinkClosed.
func (l *SerialLink) Close() error {
	err := l.port.Close()
	<-l.done
	return err
}

func (l *SerialLink) readLoop() {
	scanner := bufio.NewScanner(l.port)
	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			// Controller chatter that is not a response.
			continue
		}

		l.mu.Lock()
		ch, ok := l.pending[resp.ID]
		delete(l.pending, resp.ID)
		l.mu.Unlock()
		if ok {
			ch <- resp
		}
	}

	l.mu.Lock()
	l.err = ErrLinkClosed
	if err := scanner.Err(); err != nil {
		l.err = fmt.Errorf("%w: %v", ErrLinkClosed, err)
	}
	for id, ch := range l.pending {
		close(ch)
		delete(l.pending, id)
	}
	l.mu.Unlock()
	close(l.done)
}

func (l *SerialLink) call(ctx context.Context, req request) (response, error) {
	req.ID = uuid.NewString()
	ch := make(chan response, 1)

	l.mu.Lock()
	if l.err != nil {
		err := l.err
		l.mu.Unlock()
		return response{}, err
	}
	l.pending[req.ID] = ch
	l.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		l.forget(req.ID)
		return response{}, fmt.Errorf("failed to encode %s request: %w", req.Op, err)
	}

	l.writeMu.Lock()
	_, err = l.port.Write(append(payload, '\n'))
	l.writeMu.Unlock()
	if err != nil {
		l.forget(req.ID)
		return response{}, fmt.Errorf("failed to send %s request: %w", req.Op, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			l.mu.Lock()
			err := l.err
			l.mu.Unlock()
			return response{}, err
		}
		if resp.Error != "" {
			return response{}, fmt.Errorf("controller rejected %s: %s", req.Op, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		l.forget(req.ID)
		return response{}, ctx.Err()
	}
}

func (l *SerialLink) forget(id string) {
	l.mu.Lock()
	delete(l.pending, id)
	l.mu.Unlock()
}

// GetPosition returns the current manipulator position.
func (l *SerialLink) GetPosition(ctx context.Context, manipulatorID string) (models.Vector4, error) {
	resp, err := l.call(ctx, request{Op: "get_position", Manipulator: manipulatorID})
	if err != nil {
		return models.NaN4(), err
	}
	return resp.Position.vector(), nil
}

// SetDepth drives the depth axis and returns the final depth.
func (l *SerialLink) SetDepth(ctx context.Context, manipulatorID string, depth, speed float64) (float64, error) {
	resp, err := l.call(ctx, request{Op: "set_depth", Manipulator: manipulatorID, Depth: depth, Speed: speed})
	if err != nil {
		return 0, err
	}
	return resp.Depth, nil
}

// SetPosition drives all axes and returns the final position.
func (l *SerialLink) SetPosition(ctx context.Context, manipulatorID string, position models.Vector4, speed float64) (models.Vector4, error) {
	resp, err := l.call(ctx, request{Op: "set_position", Manipulator: manipulatorID, Position: toWire(position), Speed: speed})
	if err != nil {
		return models.NaN4(), err
	}
	return resp.Position.vector(), nil
}

// Stop halts any motion of the manipulator.
func (l *SerialLink) Stop(ctx context.Context, manipulatorID string) error {
	_, err := l.call(ctx, request{Op: "stop", Manipulator: manipulatorID})
	return err
}

var _ secondary.ManipulatorLink = (*SerialLink)(nil)
