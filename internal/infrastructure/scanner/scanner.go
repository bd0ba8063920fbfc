package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"frontdesk/internal/domain/checkin"
)

var (
	// ErrStreamEnded is reported when a finite device runs out of frames before a code was found.
	ErrStreamEnded = errors.New("camera stream ended without a QR code")

	errStopped = errors.New("scanner stopped")
)

type FrameStream interface {
	// Next blocks until a new frame is available or ctx is done. io.EOF marks the end of a finite stream.
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

type Device interface {
	ID() string
	Label() string
	Open(ctx context.Context) (FrameStream, error)
}

type Enumerator interface {
	VideoInputs(ctx context.Context) ([]Device, error)
}

type Decoder interface {
	Decode(img image.Image) (string, error)
}

type ResultFunc func(checkin.ScanResult)

type ErrorFunc func(error)

type Config struct {
	// Timeout bounds a whole session, zero disables it.
	Timeout time.Duration
}

// Scanner owns the camera for at most one session at a time.
type Scanner struct {
	enumerator Enumerator
	decoder    Decoder
	config     Config
	now        func() time.Time

	mu      sync.Mutex
	session *session
}

type session struct {
	device  Device
	stream  FrameStream
	cancel  context.CancelCauseFunc
	done    chan struct{}
	release sync.Once
}

func NewScanner(enumerator Enumerator, decoder Decoder, config Config) *Scanner {
	if enumerator == nil {
		panic("missing enumerator")
	}
	if decoder == nil {
		panic("missing decoder")
	}

	return &Scanner{
		enumerator: enumerator,
		decoder:    decoder,
		config:     config,
		now:        time.Now,
	}
}

// Start binds the first video input and decodes frames in the background until the first
// code is found. Failures before the camera is bound are returned; later failures go to onError.
// The camera is always released before onResult or onError is called.
func (s *Scanner) Start(ctx context.Context, onResult ResultFunc, onError ErrorFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return checkin.ErrScannerBusy
	}

	devices, err := s.enumerator.VideoInputs(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", checkin.ErrDeviceEnumeration, err)
	}
	if len(devices) == 0 {
		return checkin.ErrNoCameraFound
	}

	device := devices[0]
	stream, err := device.Open(ctx)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %w", checkin.ErrCameraPermissionDenied, err)
		}
		return fmt.Errorf("opening camera %s: %w", device.ID(), err)
	}

	sessionCtx, cancel := context.WithCancelCause(ctx)
	if s.config.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		sessionCtx, cancelTimeout = context.WithTimeoutCause(sessionCtx, s.config.Timeout, checkin.ErrScanTimeout)
		parentCancel := cancel
		cancel = func(cause error) {
			parentCancel(cause)
			cancelTimeout()
		}
	}

	sess := &session{
		device: device,
		stream: stream,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.session = sess

	log.FromContext(ctx).
		WithField("device", device.ID()).
		Info("Camera bound, scanning")

	go s.run(sessionCtx, sess, onResult, onError)

	return nil
}

// Stop releases the camera and waits until the decoding loop has exited.
// It is a no-op when nothing is scanning.
func (s *Scanner) Stop() {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return
	}

	sess.cancel(errStopped)
	<-sess.done
}

// InUse reports whether a camera is currently bound.
func (s *Scanner) InUse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session != nil
}

func (s *Scanner) run(ctx context.Context, sess *session, onResult ResultFunc, onError ErrorFunc) {
	defer close(sess.done)

	result, err := s.decodeFirst(ctx, sess)
	s.release(ctx, sess)

	switch {
	case err == nil:
		if onResult != nil {
			onResult(result)
		}
	case errors.Is(err, errStopped):
	default:
		if onError != nil {
			onError(err)
		}
	}
}

func (s *Scanner) decodeFirst(ctx context.Context, sess *session) (checkin.ScanResult, error) {
	logger := log.FromContext(ctx).WithField("device", sess.device.ID())

	for {
		frame, err := sess.stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return checkin.ScanResult{}, context.Cause(ctx)
			}
			if errors.Is(err, io.EOF) {
				return checkin.ScanResult{}, ErrStreamEnded
			}
			return checkin.ScanResult{}, fmt.Errorf("reading frame from %s: %w", sess.device.ID(), err)
		}

		text, err := s.decoder.Decode(frame)
		if errors.Is(err, ErrNoCode) {
			continue
		}
		if err != nil {
			logger.WithError(err).Debug("Frame could not be decoded")
			continue
		}

		return checkin.ScanResult{
			Text:      text,
			DeviceID:  sess.device.ID(),
			ScannedAt: s.now(),
		}, nil
	}
}

func (s *Scanner) release(ctx context.Context, sess *session) {
	sess.release.Do(func() {
		if err := sess.stream.Close(); err != nil {
			log.FromContext(ctx).WithError(err).Warn("Failed to release camera")
		}
		sess.cancel(errStopped)

		s.mu.Lock()
		if s.session == sess {
			s.session = nil
		}
		s.mu.Unlock()
	})
}
