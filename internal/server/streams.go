package server

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/lane-finder/internal/lane"
	"github.com/ironsheep/lane-finder/internal/pipeline"
)

// ErrUnknownStream is returned for a stream id that was never opened or is
// already closed.
var ErrUnknownStream = errors.New("unknown stream")

// stream carries the lane state of one client video between calls.
// Frames of a stream are processed one at a time.
type stream struct {
	mu     sync.Mutex
	state  lane.State
	frames int
	size   image.Point
}

func (s *Server) openStream() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.streams[id] = &stream{state: lane.InitialState}
	s.mu.Unlock()
	s.log.WithField("stream_id", id).Info("stream opened")
	return id
}

func (s *Server) lookupStream(id string) (*stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, id)
	}
	return st, nil
}

func (s *Server) closeStream(id string) (int, error) {
	s.mu.Lock()
	st, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStream, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	s.log.WithFields(logrus.Fields{
		"stream_id": id,
		"frames":    st.frames,
	}).Info("stream closed")
	return st.frames, nil
}

// advance annotates frame as the stream's next frame.
func (st *stream) advance(ann *pipeline.Annotator, frame image.Image) (*pipeline.Result, int, lane.State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	size := frame.Bounds().Size()
	if st.frames == 0 {
		st.size = size
	} else if size != st.size {
		return nil, st.frames, st.state, fmt.Errorf("%w: frame %d is %v, stream is %v", pipeline.ErrFrameSize, st.frames, size, st.size)
	}

	res, next, err := ann.Annotate(frame, st.state)
	if err != nil {
		return nil, st.frames, st.state, err
	}
	st.state = next
	idx := st.frames
	st.frames++
	return res, idx, next, nil
}

// streamCount returns the number of open streams.
func (s *Server) streamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}
