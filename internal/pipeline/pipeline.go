package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"holoprofile/internal/artifact"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/logging"
)

const (
	DefaultAnalysisTemperature  = 0.1
	DefaultSynthesisTemperature = 0.2
)

// Pipeline runs analysis then synthesis for one submission at a time. It
// holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	formatter ContextFormatter
	detector  CategoryDetector
	analysis  *AnalysisStage
	synthesis *SynthesisStage
	log       *zap.Logger
}

type options struct {
	analysisTemp  float64
	synthesisTemp float64
	log           *zap.Logger
}

type Option func(*options)

func WithTemperatures(analysis, synthesis float64) Option {
	return func(o *options) { o.analysisTemp, o.synthesisTemp = analysis, synthesis }
}

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func New(builder ClientBuilder, formatter ContextFormatter, detector CategoryDetector, opts ...Option) *Pipeline {
	o := options{analysisTemp: DefaultAnalysisTemperature, synthesisTemp: DefaultSynthesisTemperature}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrNop(o.log).Named("pipeline")
	return &Pipeline{
		formatter: formatter,
		detector:  detector,
		analysis:  &AnalysisStage{builder: builder, detector: detector, temperature: o.analysisTemp, log: log},
		synthesis: &SynthesisStage{builder: builder, temperature: o.synthesisTemp, log: log},
		log:       log,
	}
}

// NormalizeLang lower-cases lang and defaults it to zh.
func NormalizeLang(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return "zh"
	}
	return l
}

// Run executes both stages and returns the final profile.
func (p *Pipeline) Run(ctx context.Context, st State) (*artifact.FinalProfile, error) {
	if err := p.execute(ctx, &st, nil); err != nil {
		return nil, err
	}
	return st.FinalProfile, nil
}

// Stream executes both stages, emitting a status event on entering each
// stage, chunk events while the model streams, and exactly one final or
// error event. The channel is closed after the terminal event. Cancelling
// ctx abandons the in-flight model call and closes the channel without a
// terminal event.
func (p *Pipeline) Stream(ctx context.Context, st State) <-chan Event {
	ch := make(chan Event)
	em := &chanEmitter{ctx: ctx, ch: ch, lang: NormalizeLang(st.Lang)}
	go func() {
		defer close(ch)
		if err := p.execute(ctx, &st, em); err != nil {
			if ctx.Err() == nil {
				em.send(Event{Type: EventError, Data: ErrorMessage(err)})
			}
			return
		}
		em.send(Event{Type: EventFinal, Data: st.FinalProfile})
	}()
	return ch
}

func (p *Pipeline) execute(ctx context.Context, st *State, em Emitter) error {
	st.Lang = NormalizeLang(st.Lang)
	log := p.log.With(zap.String("run_id", uuid.NewString()), zap.String("lang", st.Lang))
	start := time.Now()

	emitStatus(em, StageAnalysis)
	if len(st.Answers) == 0 {
		return &ValidationError{Msg: ErrNoAnswers}
	}
	st.context = p.formatter.Format(st.Answers, st.Lang)
	st.categories = p.detector.Detect(st.Answers)
	log.Info("run started",
		zap.Int("answers", len(st.Answers)),
		zap.Bool("risk", st.categories.Risk),
		zap.String("model", st.Config.Model))

	if err := p.analysis.Run(ctx, st, em); err != nil {
		log.Warn("run failed", zap.String("stage", string(StageAnalysis)), zap.Error(err))
		return err
	}
	emitStatus(em, StageSynthesis)
	if err := p.synthesis.Run(ctx, st, em); err != nil {
		log.Warn("run failed", zap.String("stage", string(StageSynthesis)), zap.Error(err))
		return err
	}
	if st.FinalProfile == nil || st.FinalProfile.IdentityCard == nil {
		return &MissingProfileError{}
	}
	log.Info("run finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func emitStatus(em Emitter, stage Stage) {
	if em != nil {
		em.EmitStatus(stage)
	}
}

// ErrorMessage returns the short caller-facing message for err.
func ErrorMessage(err error) string {
	var cfgErr *llmclient.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Msg
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Msg
	}
	return err.Error()
}
