package viewer

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbview/internal/assets"
	"github.com/Faultbox/glbview/internal/logger"
	"github.com/Faultbox/glbview/internal/progress"
	"github.com/Faultbox/glbview/internal/scene"
)

type loadResult struct {
	node *scene.Node
	err  error
}

// session is one load cycle: a background fetch and decode feeding the
// phase machine. The render loop only calls poll and reads the outcome.
type session struct {
	ref     assets.Ref
	assets  *assets.Manager
	tracker *progress.Tracker
	loader  *Loader
	state   machine

	result chan loadResult
	cancel context.CancelFunc
	done   chan struct{}

	model *Model
	err   error
}

func newSession(ref assets.Ref, mgr *assets.Manager) *session {
	tr := progress.New()
	return &session{
		ref:     ref,
		assets:  mgr,
		tracker: tr,
		loader:  NewLoader(tr),
		result:  make(chan loadResult, 1),
	}
}

// start launches the load goroutine.
func (s *session) start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		node, err := load(ctx, s.assets, s.ref, s.tracker)
		if ctx.Err() != nil {
			logger.Debug("discarding load result after close", zap.String("ref", string(s.ref)))
			return
		}
		s.result <- loadResult{node: node, err: err}
	}()
}

// poll applies a finished load, if any. It returns true when the phase changed.
func (s *session) poll() bool {
	select {
	case res := <-s.result:
		if res.err != nil {
			s.err = fmt.Errorf("loading %s: %w", s.ref, res.err)
			if err := s.state.transition(PhaseFailed); err != nil {
				logger.Warn("ignoring load result", zap.Error(err))
				return false
			}
			logger.Error("model load failed", zap.String("ref", string(s.ref)), zap.Error(res.err))
			return true
		}

		if err := s.state.transition(PhaseLoaded); err != nil {
			logger.Warn("ignoring load result", zap.Error(err))
			return false
		}
		s.model = NewModel(res.node)
		logger.Info("model loaded",
			zap.String("ref", string(s.ref)),
			zap.Int("primitives", len(res.node.Primitives)),
			zap.Int("triangles", res.node.TriangleCount()),
		)
		return true
	default:
		return false
	}
}

func (s *session) phase() Phase {
	return s.state.Phase()
}

// close cancels an unfinished load, waits for the load goroutine to exit
// and drops the progress subscription.
func (s *session) close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.loader.Close()
}

// load fetches and decodes ref. The tracker reaches 100 only after a
// successful decode.
func load(ctx context.Context, mgr *assets.Manager, ref assets.Ref, tr *progress.Tracker) (*scene.Node, error) {
	data, err := mgr.Fetch(ctx, ref, tr)
	if err != nil {
		return nil, err
	}

	node, err := scene.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	tr.Complete()
	return node, nil
}
